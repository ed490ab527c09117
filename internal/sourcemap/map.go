package sourcemap

import (
	"github.com/cockroachdb/errors"
)

// NoSource marks an entry that has a generated position but no original one.
const NoSource = -1

// Entry relates one generated position to one original position. Lines and
// columns are zero-based.
type Entry struct {
	GenLine    int
	GenColumn  int
	OrigLine   int
	OrigColumn int
	Source     int
}

// Mapped reports whether the entry attributes its generated position to a source.
func (e Entry) Mapped() bool { return e.Source != NoSource }

func (e Entry) before(line, col int) bool {
	return e.GenLine < line || (e.GenLine == line && e.GenColumn <= col)
}

// Map is a decoded source map. Entries are kept in generated order.
type Map struct {
	File           string
	SourceRoot     string
	Sources        []string
	SourcesContent map[string]string
	Entries        []Entry
}

// Validate checks that every mapped entry points into Sources.
func (m *Map) Validate() error {
	for i, e := range m.Entries {
		if e.GenLine < 0 || e.GenColumn < 0 {
			return errors.Newf("sourcemap: entry %d has negative generated position", i)
		}
		if !e.Mapped() {
			continue
		}
		if e.Source < 0 || e.Source >= len(m.Sources) {
			return errors.Newf("sourcemap: entry %d references source %d of %d", i, e.Source, len(m.Sources))
		}
		if e.OrigLine < 0 || e.OrigColumn < 0 {
			return errors.Newf("sourcemap: entry %d has negative original position", i)
		}
	}
	return nil
}

// Lookup returns the original position for a generated one, or false when the
// map has no coverage there. It builds a fresh Index on every call; use
// NewIndex for repeated lookups.
func (m *Map) Lookup(line, col int) (Entry, bool) {
	return NewIndex(m).Original(line, col)
}

// MappedEntries returns only the entries that carry an original position.
func (m *Map) MappedEntries() []Entry {
	out := make([]Entry, 0, len(m.Entries))
	for _, e := range m.Entries {
		if e.Mapped() {
			out = append(out, e)
		}
	}
	return out
}
