package sourcemap

import (
	"maps"
	"slices"
)

// Merge composes two maps: a relates original sources to an intermediate
// file, b relates that intermediate file to the final output. The result
// relates the original sources to the final output.
//
// Sources and their contents come from a, since b only ever names the
// intermediate file. Every entry of b keeps its generated position; its
// original position is replaced by a's answer for it. When a has no
// coverage there the entry stays unmapped rather than borrowing a neighbour;
// such entries serialize as 1-field segments. Names are not carried over.
func Merge(a, b *Map) *Map {
	ix := NewIndex(a)
	out := &Map{
		SourceRoot:     a.SourceRoot,
		Sources:        slices.Clone(a.Sources),
		SourcesContent: maps.Clone(a.SourcesContent),
		Entries:        make([]Entry, 0, len(b.Entries)),
	}
	for _, e := range b.Entries {
		next := Entry{GenLine: e.GenLine, GenColumn: e.GenColumn, Source: NoSource}
		if e.Mapped() {
			if orig, ok := ix.Original(e.OrigLine, e.OrigColumn); ok {
				next.Source, next.OrigLine, next.OrigColumn = orig.Source, orig.OrigLine, orig.OrigColumn
			}
		}
		out.Entries = append(out.Entries, next)
	}
	return out
}
