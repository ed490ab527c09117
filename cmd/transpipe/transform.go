package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"transpipe/internal/engine"
	"transpipe/internal/logging"
	"transpipe/internal/watch"
)

type transformFlags struct {
	outDir string
	jobs   int
}

func (t *transformFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&t.outDir, "out-dir", "o", "", "Write results here instead of next to the inputs")
	cmd.Flags().IntVarP(&t.jobs, "jobs", "j", 4, "Files transformed concurrently")
}

func newTransformCmd(f *rootFlags) *cobra.Command {
	t := &transformFlags{}
	cmd := &cobra.Command{
		Use:   "transform FILE...",
		Short: "Run the file stages over source files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEngine(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer e.Close()
			outs, err := newOutputs(args)
			if err != nil {
				return err
			}
			return transformAll(cmd.Context(), e, args, outs, t)
		},
	}
	t.register(cmd)
	return cmd
}

func newWatchCmd(f *rootFlags) *cobra.Command {
	t := &transformFlags{}
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch FILE...",
		Short: "Transform files, then again whenever one changes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := loadEngine(ctx, f)
			if err != nil {
				return err
			}
			defer e.Close()
			outs, err := newOutputs(args)
			if err != nil {
				return err
			}
			if err := transformAll(ctx, e, args, outs, t); err != nil {
				logging.Component("cli").Error("initial build", "err", err)
			}
			w, err := watch.New(args, func(ctx context.Context, path string) error {
				return transformFile(ctx, e, path, outs, t.outDir)
			}, debounce)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}
	t.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Coalesce changes within this window")
	return cmd
}

func transformAll(ctx context.Context, e *engine.Engine, files []string, outs *outputs, t *transformFlags) error {
	g, ctx := errgroup.WithContext(ctx)
	if t.jobs > 0 {
		g.SetLimit(t.jobs)
	}
	for _, file := range files {
		g.Go(func() error { return transformFile(ctx, e, file, outs, t.outDir) })
	}
	return g.Wait()
}

func transformFile(ctx context.Context, e *engine.Engine, file string, outs *outputs, outDir string) error {
	src, err := filepath.Abs(file)
	if err != nil {
		return errors.Wrapf(err, "%s", file)
	}
	code, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrap(err, "read input")
	}
	start := time.Now()
	res, err := e.Transform(ctx, string(code), src)
	if err != nil {
		return err
	}

	dest := destination(src, outDir, res != nil)
	if dest == src {
		if res == nil {
			return nil
		}
		return errors.Newf("%s: output would overwrite the input, use --out-dir", file)
	}
	if err := outs.claim(src, dest); err != nil {
		return err
	}
	if res == nil {
		res = &engine.Result{Code: string(code)}
	}
	if err := writeResult(dest, res); err != nil {
		return errors.Wrapf(err, "%s", file)
	}
	logging.Component("cli").Info("transformed",
		"file", src,
		"out", dest,
		"mapped", res.Map != "",
		"took", time.Since(start),
	)
	return nil
}
