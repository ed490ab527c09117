package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"transpipe/internal/logging"
	"transpipe/internal/pipeline"
	"transpipe/internal/telemetry"
	"transpipe/internal/transform"
	"transpipe/internal/transport"
)

const phaseServe pipeline.Phase = "serve"

func newServeCmd(f *rootFlags) *cobra.Command {
	var (
		listen string
		color  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host the esbuild transformer over gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rec := telemetry.NewRecorder()
			if f.metricsPort > 0 {
				telemetry.Expose(ctx, f.metricsPort, rec.Registry())
			}

			srv, err := transport.StartServer(listen, instrumented(transform.NewEsbuild(color), rec))
			if err != nil {
				return err
			}
			go func() {
				<-ctx.Done()
				srv.Stop()
			}()
			logging.Component("cli").Info("serving transformer", "addr", srv.Addr().String(), "metrics_port", f.metricsPort)
			return srv.Serve()
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":50051", "gRPC listen address")
	cmd.Flags().BoolVar(&color, "color", false, "Colorize diagnostics")
	return cmd
}

// instrumented records every remote call with the recorder.
func instrumented(next transform.Transformer, rec *telemetry.Recorder) transform.Transformer {
	return transform.Func(func(ctx context.Context, req *transform.Request) (*transform.Response, error) {
		start := time.Now()
		resp, err := next.Transform(ctx, req)
		rec.StepDone(phaseServe, req.Kind, time.Since(start), err)
		if err == nil {
			for range resp.Diagnostics {
				rec.Diagnostic(phaseServe)
			}
		}
		return resp, err
	})
}
