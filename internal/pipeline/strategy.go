package pipeline

import (
	"github.com/cockroachdb/errors"

	"transpipe/internal/stage"
)

// Step is one transformer invocation planned for a unit.
type Step struct {
	Stage   int
	Kind    stage.Kind
	Options stage.Options
}

// Strategy turns the stages matching one identity into transformer steps.
type Strategy interface {
	Name() string
	Steps(matched []stage.Stage) []Step
}

var (
	// Chain runs every matching stage in order with its own options.
	Chain Strategy = chain{}
	// Merged runs a single step with the merged options of all matches.
	Merged Strategy = merged{}
)

func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "chain":
		return Chain, nil
	case "merged":
		return Merged, nil
	}
	return nil, errors.Newf("unknown strategy %q", name)
}

type chain struct{}

func (chain) Name() string { return "chain" }

func (chain) Steps(matched []stage.Stage) []Step {
	steps := make([]Step, 0, len(matched))
	prev := stage.KindJS
	for i, s := range matched {
		kind := s.Kind
		if kind == "" {
			kind = stage.KindJS
			if i > 0 {
				kind = prev.Produces()
			}
		}
		steps = append(steps, Step{Stage: s.Index, Kind: kind, Options: s.Options})
		prev = kind
	}
	return steps
}

type merged struct{}

func (merged) Name() string { return "merged" }

func (merged) Steps(matched []stage.Stage) []Step {
	eff, ok := stage.Merge(matched)
	if !ok {
		return nil
	}
	kind := eff.Kind
	if kind == "" {
		kind = stage.KindJS
	}
	return []Step{{Stage: matched[0].Index, Kind: kind, Options: eff.Options}}
}
