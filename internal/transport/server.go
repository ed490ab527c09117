package transport

import (
	"context"
	"net"
	"time"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	pb "transpipe/api/proto/v1"
	"transpipe/internal/logging"
	"transpipe/internal/transform"
)

// Server hosts a transformer behind the TransformerService and the standard
// gRPC health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	lis    net.Listener
}

func StartServer(addr string, impl transform.Transformer) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", addr)
	}
	return NewServer(lis, impl), nil
}

func NewServer(lis net.Listener, impl transform.Transformer, opts ...grpc.ServerOption) *Server {
	opts = append([]grpc.ServerOption{grpc.UnaryInterceptor(logCalls)}, opts...)
	s := &Server{
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
		lis:    lis,
	}
	pb.RegisterTransformerServiceServer(s.grpc, &service{impl: impl})
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(pb.TransformerService_ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) Addr() net.Addr { return s.lis.Addr() }

func (s *Server) Serve() error {
	return s.grpc.Serve(s.lis)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

type service struct {
	pb.UnimplementedTransformerServiceServer
	impl transform.Transformer
}

func (s *service) Transform(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := transform.DecodeRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resp, err := s.impl.Transform(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := transform.EncodeResponse(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, transform.ErrUnsupportedOption), errors.Is(err, transform.ErrTransformFailed):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logging.Component("transport").Debug("rpc",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"took", time.Since(start),
	)
	return resp, err
}
