package pipeline

import (
	"time"

	"transpipe/internal/stage"
)

// Observer receives per-step events. Implementations must be safe for
// concurrent use.
type Observer interface {
	StepDone(phase Phase, kind stage.Kind, took time.Duration, err error)
	Diagnostic(phase Phase)
	Untransformed(phase Phase)
}

type noopObserver struct{}

func (noopObserver) StepDone(Phase, stage.Kind, time.Duration, error) {}
func (noopObserver) Diagnostic(Phase)                                 {}
func (noopObserver) Untransformed(Phase)                              {}
