package stage

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobwas/glob"
)

const defaultExclude = "/node_modules/"

type matcher interface {
	Match(string) bool
}

type regexpMatcher struct{ re *regexp.Regexp }

func (m regexpMatcher) Match(s string) bool { return m.re.MatchString(s) }

// Filter decides whether an identity is in scope of a stage. Exclusion wins
// over inclusion; an empty include list admits everything.
type Filter struct {
	include []matcher
	exclude []matcher
}

// NewFilter compiles include and exclude patterns. A pattern written as
// /expr/ is a regular expression searched anywhere in the identity; any other
// pattern is a glob over slash-separated paths. Relative globs may match at
// any depth.
func NewFilter(include, exclude []string) (*Filter, error) {
	f := &Filter{}
	var err error
	if f.include, err = compilePatterns(include); err != nil {
		return nil, errors.Wrap(err, "include")
	}
	if f.exclude, err = compilePatterns(exclude); err != nil {
		return nil, errors.Wrap(err, "exclude")
	}
	return f, nil
}

func compilePatterns(patterns []string) ([]matcher, error) {
	out := make([]matcher, 0, len(patterns))
	for _, p := range patterns {
		m, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func compilePattern(p string) (matcher, error) {
	if len(p) >= 2 && strings.HasPrefix(p, "/") && strings.HasSuffix(p, "/") {
		re, err := regexp.Compile(p[1 : len(p)-1])
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %q", p)
		}
		return regexpMatcher{re}, nil
	}
	if p == "" {
		return nil, errors.New("empty pattern")
	}
	g, err := glob.Compile(p, '/')
	if err != nil {
		return nil, errors.Wrapf(err, "pattern %q", p)
	}
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, "**") {
		return g, nil
	}
	// relative globs also match below any directory
	deep, err := glob.Compile("**/"+p, '/')
	if err != nil {
		return nil, errors.Wrapf(err, "pattern %q", p)
	}
	return anyMatcher{g, deep}, nil
}

type anyMatcher []matcher

func (ms anyMatcher) Match(s string) bool {
	for _, m := range ms {
		if m.Match(s) {
			return true
		}
	}
	return false
}

func (f *Filter) Match(id string) bool {
	if strings.ContainsRune(id, 0) {
		return false
	}
	id = filepath.ToSlash(id)
	for _, m := range f.exclude {
		if m.Match(id) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, m := range f.include {
		if m.Match(id) {
			return true
		}
	}
	return false
}

func defaultInclude(k Kind) []string {
	exts := k.Extensions()
	if len(exts) == 0 {
		return nil
	}
	return []string{`/\.` + regexp.QuoteMeta(exts[0]) + `$/`}
}
