// Command transpipe applies a pipeline manifest of transformation stages to
// source files and output chunks, and can host the esbuild transformer over
// gRPC for other processes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"transpipe/internal/engine"
	"transpipe/internal/logging"
	"transpipe/internal/telemetry"
)

var errUnresolved = errors.New("unresolved")

type rootFlags struct {
	manifest    string
	logLevel    string
	metricsPort int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errUnresolved) {
			fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "transpipe",
		Short:         "Staged source transformation with composed source maps",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.InitFromEnv(f.logLevel)
		},
	}
	root.PersistentFlags().StringVarP(&f.manifest, "config", "c", "pipeline.yml", "Pipeline manifest (YAML)")
	root.PersistentFlags().StringVarP(&f.logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().IntVar(&f.metricsPort, "metrics-port", 0, "Expose Prometheus metrics on this port (0 = off)")

	root.AddCommand(
		newTransformCmd(f),
		newRenderCmd(f),
		newResolveCmd(f),
		newWatchCmd(f),
		newServeCmd(f),
	)
	return root
}

// loadEngine bootstraps the manifest and, when asked, exposes metrics for
// the lifetime of ctx.
func loadEngine(ctx context.Context, f *rootFlags, opts ...engine.Option) (*engine.Engine, error) {
	if f.metricsPort > 0 {
		rec := telemetry.NewRecorder()
		telemetry.Expose(ctx, f.metricsPort, rec.Registry())
		opts = append(opts, engine.WithRecorder(rec))
	}
	return engine.Bootstrap(ctx, f.manifest, opts...)
}
