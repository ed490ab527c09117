package sourcemap

import (
	"cmp"
	"slices"
	"sort"
)

// Index answers "which original position produced this generated one" for a
// single map. It is read-only once built.
type Index struct {
	entries []Entry
}

func NewIndex(m *Map) *Index {
	entries := slices.Clone(m.Entries)
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Or(cmp.Compare(a.GenLine, b.GenLine), cmp.Compare(a.GenColumn, b.GenColumn))
	})
	return &Index{entries: entries}
}

// Original finds the entry at the greatest generated position not after
// (line, col) on the same line. Among entries sharing that position the first
// one wins. An unmapped entry there means no coverage.
func (ix *Index) Original(line, col int) (Entry, bool) {
	i := sort.Search(len(ix.entries), func(i int) bool {
		return !ix.entries[i].before(line, col)
	})
	if i == 0 {
		return Entry{}, false
	}
	j := i - 1
	if ix.entries[j].GenLine != line {
		return Entry{}, false
	}
	for j > 0 && ix.entries[j-1].GenLine == line && ix.entries[j-1].GenColumn == ix.entries[j].GenColumn {
		j--
	}
	e := ix.entries[j]
	if !e.Mapped() {
		return Entry{}, false
	}
	return e, true
}
