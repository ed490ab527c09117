package stage

import (
	"github.com/cockroachdb/errors"
)

var ErrNoSelector = errors.New("stage has neither a loader nor an include pattern")

// Config is one user-declared stage. Nil Include or Exclude means "use the
// default"; an empty non-nil slice means "no patterns".
type Config struct {
	Kind     Kind
	Output   bool
	Include  []string
	Exclude  []string
	Tsconfig string
	Options  Options
}

// Stage is a compiled Config. Stages are immutable and safe to share.
type Stage struct {
	Config
	Index  int
	filter *Filter
}

func (s Stage) Match(id string) bool { return s.filter.Match(id) }

// Compile validates configs and builds their selectors, keeping declaration
// order.
func Compile(cfgs []Config) ([]Stage, error) {
	out := make([]Stage, 0, len(cfgs))
	for i, c := range cfgs {
		include, exclude := c.Include, c.Exclude
		if include == nil && !c.Output {
			include = defaultInclude(c.Kind)
		}
		if exclude == nil && !c.Output {
			exclude = []string{defaultExclude}
		}
		if len(include) == 0 && (c.Output || c.Include == nil) {
			return nil, errors.Wrapf(ErrNoSelector, "stage %d", i)
		}
		f, err := NewFilter(include, exclude)
		if err != nil {
			return nil, errors.Wrapf(err, "stage %d", i)
		}
		c.Options = c.Options.Clone()
		out = append(out, Stage{Config: c, Index: i, filter: f})
	}
	return out, nil
}

// Matching returns the stages of the requested phase whose selector admits id,
// in declaration order.
func Matching(id string, stages []Stage, output bool) []Stage {
	var out []Stage
	for _, s := range stages {
		if s.Output == output && s.Match(id) {
			out = append(out, s)
		}
	}
	return out
}

// Effective is the merged view of every stage matching one identity.
type Effective struct {
	Kind    Kind
	Options Options
}

// Select merges the matching stages: the kind comes from the first match
// only, every other option is overridden key by key by later matches.
func Select(id string, stages []Stage, output bool) (Effective, bool) {
	return Merge(Matching(id, stages, output))
}

func Merge(matched []Stage) (Effective, bool) {
	if len(matched) == 0 {
		return Effective{}, false
	}
	eff := Effective{Kind: matched[0].Kind, Options: Options{}}
	for _, s := range matched {
		eff.Options = eff.Options.Merge(s.Options)
	}
	return eff, true
}

// InputKinds lists the distinct kinds of input stages in declaration order.
func InputKinds(stages []Stage) []Kind {
	var kinds []Kind
	seen := make(map[Kind]bool)
	for _, s := range stages {
		if s.Output || s.Kind == "" || seen[s.Kind] {
			continue
		}
		seen[s.Kind] = true
		kinds = append(kinds, s.Kind)
	}
	return kinds
}
