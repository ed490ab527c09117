package engine

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"

	"transpipe/internal/logging"
	"transpipe/internal/pipeline"
	"transpipe/internal/resolve"
	"transpipe/internal/stage"
	"transpipe/internal/transform"
	"transpipe/sink"
)

// Result is what the host receives for a transformed unit. Map is JSON, or
// "" when no step produced a mapping.
type Result struct {
	Code string
	Map  string
}

type OutputConfig struct {
	Sourcemap bool
}

type Warning = pipeline.Diagnostic

// Recorder observes pipeline steps and resolutions.
type Recorder interface {
	pipeline.Observer
	Resolution(ok bool)
}

type Engine struct {
	runner   *pipeline.Runner
	resolver *resolve.Resolver
	client   transform.Client

	warn     func(Warning)
	recorder Recorder
	fs       resolve.FS
	strategy pipeline.Strategy
	output   OutputConfig
	reports  sink.Fanout
	closers  []func() error
}

type Option func(*Engine)

// WithWarn replaces the default warning handler, which logs.
func WithWarn(fn func(Warning)) Option {
	return func(e *Engine) { e.warn = fn }
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func WithFS(fsys resolve.FS) Option {
	return func(e *Engine) { e.fs = fsys }
}

func WithStrategy(s pipeline.Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// WithOutput sets the defaults the manifest declares for the output phase.
func WithOutput(out OutputConfig) Option {
	return func(e *Engine) { e.output = out }
}

// New compiles the stages and reads every referenced tsconfig file. The
// engine owns client and closes it in Close, or before returning an error.
func New(cfgs []stage.Config, client transform.Client, opts ...Option) (*Engine, error) {
	e := &Engine{
		client:   client,
		fs:       resolve.OS(),
		strategy: pipeline.Chain,
	}
	for _, o := range opts {
		o(e)
	}
	if e.warn == nil {
		log := logging.Component("engine")
		e.warn = func(w Warning) {
			log.Warn(w.Message, "identity", w.Identity, "phase", w.Phase, "stage", w.Stage)
		}
	}
	if len(e.reports) > 0 {
		e.warn = publishing(e.warn, e.reports)
	}

	cfgs, err := loadTsconfigs(cfgs)
	if err != nil {
		return nil, errors.CombineErrors(err, e.Close())
	}
	stages, err := stage.Compile(cfgs)
	if err != nil {
		return nil, errors.CombineErrors(errors.Wrap(err, "stages"), e.Close())
	}

	runnerOpts := []pipeline.RunnerOption{pipeline.WithStrategy(e.strategy)}
	if e.recorder != nil {
		runnerOpts = append(runnerOpts, pipeline.WithObserver(e.recorder))
	}
	e.runner = pipeline.NewRunner(stages, client, runnerOpts...)
	e.resolver = resolve.New(e.fs, stage.InputKinds(stages))

	logging.Component("engine").Debug("engine ready",
		"stages", len(stages),
		"strategy", e.strategy.Name(),
		"extensions", e.resolver.Extensions(),
	)
	return e, nil
}

func publishing(next func(Warning), reports sink.Fanout) func(Warning) {
	log := logging.Component("engine")
	return func(w Warning) {
		next(w)
		if err := reports.Push(sink.NewEvent(w.Identity, string(w.Phase), w.Stage, w.Message)); err != nil {
			log.Warn("report failed", "identity", w.Identity, "err", err)
		}
	}
}

// loadTsconfigs inlines the tsconfig file of typed-script stages as the
// tsconfigRaw option, unless that option is already set.
func loadTsconfigs(cfgs []stage.Config) ([]stage.Config, error) {
	out := make([]stage.Config, len(cfgs))
	for i, c := range cfgs {
		if c.Tsconfig != "" && (c.Kind == stage.KindTS || c.Kind == stage.KindTSX) && !c.Options.Has("tsconfigRaw") {
			raw, err := os.ReadFile(c.Tsconfig)
			if err != nil {
				return nil, errors.Wrapf(err, "stage %d: tsconfig", i)
			}
			c.Options = c.Options.Merge(stage.Options{"tsconfigRaw": string(raw)})
		}
		out[i] = c
	}
	return out, nil
}

// ResolveID resolves a relative or absolute import specifier by inferring
// extensions and directory index files. false defers to the host.
func (e *Engine) ResolveID(specifier, importer string) (string, bool) {
	if !resolve.Applies(specifier, importer) {
		return "", false
	}
	path, ok := e.resolver.Resolve(specifier, importer)
	if e.recorder != nil {
		e.recorder.Resolution(ok)
	}
	return path, ok
}

// Transform runs the file stages matching id. A nil result means no stage
// matched.
func (e *Engine) Transform(ctx context.Context, code, id string) (*Result, error) {
	unit, err := e.runner.Run(ctx, pipeline.Input{Code: code, Identity: id}, e.warn)
	return toResult(unit, err)
}

// RenderChunk runs the output stages matching chunkID.
func (e *Engine) RenderChunk(ctx context.Context, code, chunkID string, out OutputConfig) (*Result, error) {
	unit, err := e.runner.Run(ctx, pipeline.Input{
		Code:      code,
		Identity:  chunkID,
		Output:    true,
		Sourcemap: out.Sourcemap,
	}, e.warn)
	return toResult(unit, err)
}

func toResult(unit *pipeline.Unit, err error) (*Result, error) {
	if err != nil || unit == nil {
		return nil, err
	}
	res := &Result{Code: unit.Code}
	if unit.Map != nil {
		res.Map = unit.Map.String()
	}
	return res, nil
}

// Output returns the output-phase defaults the engine was built with.
func (e *Engine) Output() OutputConfig { return e.output }

func (e *Engine) Close() error {
	var errs error
	for _, c := range e.closers {
		errs = errors.CombineErrors(errs, c())
	}
	if e.client != nil {
		errs = errors.CombineErrors(errs, e.client.Close())
	}
	return errs
}
