package transform

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	pb "transpipe/api/proto/v1"
	"transpipe/internal/stage"
)

var ErrTransformFailed = errors.New("transform failed")

// Request is one transformer invocation. Options never carries the
// sourcemap key; the pipeline folds it into Sourcemap.
type Request struct {
	Code       string
	Kind       stage.Kind
	Sourcefile string
	Sourcemap  bool
	Options    stage.Options
}

// Response carries the transformed code, the source map as JSON ("" when
// none was produced) and non-fatal diagnostics already formatted for humans.
type Response struct {
	Code        string
	Map         string
	Diagnostics []string
}

type Client interface {
	Transform(ctx context.Context, req *Request) (*Response, error)
	Close() error
}

// GRPCClient calls a remote transformer service.
type GRPCClient struct {
	conn    *grpc.ClientConn
	svc     pb.TransformerServiceClient
	health  healthpb.HealthClient
	timeout time.Duration
}

func NewGRPCClient(conn *grpc.ClientConn, timeout time.Duration) *GRPCClient {
	return &GRPCClient{
		conn:    conn,
		svc:     pb.NewTransformerServiceClient(conn),
		health:  healthpb.NewHealthClient(conn),
		timeout: timeout,
	}
}

func (c *GRPCClient) Transform(ctx context.Context, req *Request) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	in, err := EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	out, err := c.svc.Transform(ctx, in)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "remote transform of %s", req.Sourcefile), ErrTransformFailed)
	}
	return DecodeResponse(out)
}

// Health asks the remote side whether the transformer service is serving.
func (c *GRPCClient) Health(ctx context.Context) error {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: pb.TransformerService_ServiceName})
	if err != nil {
		return errors.Wrap(err, "health check")
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return errors.Newf("transformer not serving: %s", resp.GetStatus())
	}
	return nil
}

func (c *GRPCClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// InProcessClient adapts a transformer compiled into the binary.
type InProcessClient struct {
	impl Transformer
}

type Transformer interface {
	Transform(context.Context, *Request) (*Response, error)
}

func NewInProcessClient(impl Transformer) *InProcessClient { return &InProcessClient{impl: impl} }

func (c *InProcessClient) Transform(ctx context.Context, req *Request) (*Response, error) {
	return c.impl.Transform(ctx, req)
}

func (c *InProcessClient) Close() error { return nil }

// Func lets a plain function act as a Transformer.
type Func func(context.Context, *Request) (*Response, error)

func (f Func) Transform(ctx context.Context, req *Request) (*Response, error) { return f(ctx, req) }
