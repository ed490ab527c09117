package pipeline

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"transpipe/internal/logging"
	"transpipe/internal/sourcemap"
	"transpipe/internal/stage"
	"transpipe/internal/transform"
)

// Phase names the host hook a unit came through.
type Phase string

const (
	PhaseTransform Phase = "transform"
	PhaseRender    Phase = "render"
)

// Input is one file (or output chunk) handed over by the host.
type Input struct {
	Code     string
	Identity string
	// Output selects output-chunk stages instead of file stages.
	Output bool
	// Sourcemap is the host's mapping setting; only the output phase reads it.
	Sourcemap bool
}

// Unit is the result of a run. Map is nil when no step produced one.
type Unit struct {
	Code string
	Map  *sourcemap.Map
}

// Diagnostic is one non-fatal transformer message.
type Diagnostic struct {
	Identity string
	Phase    Phase
	Stage    int
	Message  string
}

type WarnFunc func(Diagnostic)

type Runner struct {
	stages   []stage.Stage
	client   transform.Client
	strategy Strategy
	observer Observer
	tracer   trace.Tracer
}

type RunnerOption func(*Runner)

func WithStrategy(s Strategy) RunnerOption {
	return func(r *Runner) {
		if s != nil {
			r.strategy = s
		}
	}
}

func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) {
		if o != nil {
			r.observer = o
		}
	}
}

func NewRunner(stages []stage.Stage, client transform.Client, opts ...RunnerOption) *Runner {
	r := &Runner{
		stages:   stages,
		client:   client,
		strategy: Chain,
		observer: noopObserver{},
		tracer:   otel.Tracer("transpipe.pipeline"),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Runner) Strategy() Strategy { return r.strategy }

// Run folds the matching stages over in.Code. A nil unit with a nil error
// means no stage matched and the host should keep the input as is.
func (r *Runner) Run(ctx context.Context, in Input, warn WarnFunc) (*Unit, error) {
	phase := PhaseTransform
	if in.Output {
		phase = PhaseRender
	}
	matched := stage.Matching(in.Identity, r.stages, in.Output)
	if len(matched) == 0 {
		r.observer.Untransformed(phase)
		return nil, nil
	}

	ctx, span := r.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("unit.identity", in.Identity),
		attribute.String("unit.phase", string(phase)),
		attribute.String("pipeline.strategy", r.strategy.Name()),
		attribute.Int("pipeline.matched", len(matched)),
	))
	defer span.End()

	unit := &Unit{Code: in.Code}
	for i, st := range r.strategy.Steps(matched) {
		next, err := r.step(ctx, in, phase, i, st, unit, warn)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		unit = next
	}
	return unit, nil
}

func (r *Runner) step(ctx context.Context, in Input, phase Phase, i int, st Step, cur *Unit, warn WarnFunc) (*Unit, error) {
	ctx, span := r.tracer.Start(ctx, "pipeline.step", trace.WithAttributes(
		attribute.Int("step.index", i),
		attribute.Int("step.stage", st.Stage),
		attribute.String("step.kind", string(st.Kind)),
	))
	defer span.End()

	req := &transform.Request{
		Code:       cur.Code,
		Kind:       st.Kind,
		Sourcefile: in.Identity,
		Sourcemap:  wantMap(in, st.Options),
		Options:    stepOptions(st),
	}
	logging.L().Debug("pipeline step",
		"identity", in.Identity,
		"phase", phase,
		"step", i,
		"stage", st.Stage,
		"kind", st.Kind,
		"sourcemap", req.Sourcemap,
	)

	start := time.Now()
	resp, err := r.client.Transform(ctx, req)
	r.observer.StepDone(phase, st.Kind, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.Wrapf(err, "%s %s: step %d (stage %d)", phase, in.Identity, i, st.Stage)
	}

	for _, msg := range resp.Diagnostics {
		r.observer.Diagnostic(phase)
		if warn != nil {
			warn(Diagnostic{Identity: in.Identity, Phase: phase, Stage: st.Stage, Message: msg})
		}
	}

	next := &Unit{Code: resp.Code, Map: cur.Map}
	if resp.Map == "" {
		return next, nil
	}
	m, err := sourcemap.ParseString(resp.Map)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s: step %d (stage %d): mapping", phase, in.Identity, i, st.Stage)
	}
	if next.Map == nil {
		next.Map = m
	} else {
		next.Map = sourcemap.Merge(next.Map, m)
	}
	span.SetAttributes(attribute.Int("step.mappings", len(next.Map.Entries)))
	return next, nil
}

// wantMap reports whether a step asks the transformer for a mapping. File
// stages always do unless an option turns it off; output stages follow the
// host setting.
func wantMap(in Input, opts stage.Options) bool {
	if on, ok := opts.Bool("sourcemap"); ok && !on {
		return false
	}
	return !in.Output || in.Sourcemap
}

func stepOptions(st Step) stage.Options {
	opts := st.Options.Without("sourcemap")
	if st.Kind == stage.KindJSON && !opts.Has("format") {
		opts["format"] = "esm"
	}
	return opts
}
