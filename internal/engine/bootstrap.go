package engine

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"transpipe/internal/config"
	"transpipe/internal/logging"
	"transpipe/internal/manifest"
	"transpipe/internal/pipeline"
	"transpipe/internal/transform"
	"transpipe/internal/transport"
	"transpipe/sink"
	"transpipe/sink/kafka"
	"transpipe/sink/stdout"
)

const healthTimeout = 5 * time.Second

// Bootstrap builds an engine from a pipeline manifest: transformer, strategy,
// stages and report sinks. Options given here win over the manifest.
func Bootstrap(ctx context.Context, manifestPath string, opts ...Option) (*Engine, error) {
	// 1. manifest
	f, err := config.LoadPipelineSpec(manifestPath)
	if err != nil {
		return nil, errors.Wrap(err, "pipeline")
	}
	strategy, err := pipeline.ParseStrategy(f.Strategy)
	if err != nil {
		return nil, err
	}

	// 2. transformer
	client, err := NewClient(ctx, f.Transformer)
	if err != nil {
		return nil, errors.Wrap(err, "transformer")
	}

	// 3. report sinks
	reports, err := OpenReports(f)
	if err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "reports")
	}

	base := []Option{
		WithStrategy(strategy),
		WithOutput(OutputConfig{Sourcemap: f.Output.Sourcemap}),
		withReports(reports),
	}
	e, err := New(f.StageConfigs(), client, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	logging.Component("engine").Info("pipeline loaded",
		"manifest", manifestPath,
		"transformer", f.Transformer.Type,
		"strategy", strategy.Name(),
		"reports", f.Reports,
	)
	return e, nil
}

// NewClient connects the transformer a manifest names. Remote transformers
// must pass a health check first.
func NewClient(ctx context.Context, ts manifest.TransformerSpec) (transform.Client, error) {
	switch ts.Type {
	case "", manifest.TransformerEsbuild:
		return transform.NewInProcessClient(transform.NewEsbuild(ts.Color)), nil
	case manifest.TransformerGRPC:
		conn, err := transport.Dial(ts.Address)
		if err != nil {
			return nil, err
		}
		c := transform.NewGRPCClient(conn, time.Duration(ts.TimeoutMS)*time.Millisecond)
		hctx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()
		if err := c.Health(hctx); err != nil {
			_ = c.Close()
			return nil, errors.Wrapf(err, "transformer at %s", ts.Address)
		}
		return c, nil
	}
	return nil, errors.Newf("unsupported transformer type %q", ts.Type)
}

// OpenReports creates and configures the sinks listed under reports.
func OpenReports(f manifest.File) (sink.Fanout, error) {
	var out sink.Fanout
	for _, name := range f.Reports {
		a, err := sink.NewAdapter(name)
		if err != nil {
			_ = out.Close()
			return nil, err
		}
		switch name {
		case "stdout":
			err = a.Configure(stdout.Config{PrintCounter: f.ReportConfigs.Stdout.PrintCounter})
		case "kafka":
			var kc kafka.Config
			if kc, err = config.LoadKafkaConfig(f.ReportConfigs.Kafka); err == nil {
				err = a.Configure(kc)
			}
		default:
			err = errors.Newf("no config block for sink %q", name)
		}
		if err != nil {
			_ = out.Close()
			return nil, errors.Wrapf(err, "sink %s", name)
		}
		out = append(out, a)
	}
	return out, nil
}

// withReports publishes every warning to the sinks in addition to the warn
// handler.
func withReports(reports sink.Fanout) Option {
	return func(e *Engine) {
		if len(reports) == 0 {
			return
		}
		e.reports = reports
		e.closers = append(e.closers, reports.Close)
	}
}
