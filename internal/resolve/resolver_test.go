package resolve

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"

	"transpipe/internal/stage"
)

func tree(files ...string) FS {
	m := fstest.MapFS{}
	for _, f := range files {
		m[f] = &fstest.MapFile{Data: []byte("// " + f)}
	}
	return FromFS(m)
}

func TestResolve_ExistingFile(t *testing.T) {
	r := New(tree("proj/src/util.js", "proj/src/main.js"), []stage.Kind{stage.KindJS})

	got, ok := r.Resolve("./util.js", "/proj/src/main.js")
	assert.True(t, ok)
	assert.Equal(t, "/proj/src/util.js", got)
}

func TestResolve_DirectoryIndex(t *testing.T) {
	fsys := tree("proj/src/main.js", "proj/src/bar/index.jsx", "proj/src/bar/index.json")
	r := New(fsys, []stage.Kind{stage.KindJSON, stage.KindTSX, stage.KindJSX})

	got, ok := r.Resolve("./bar", "/proj/src/main.js")
	assert.True(t, ok)
	assert.Equal(t, "/proj/src/bar/index.jsx", got, "data kinds never act as index files")
}

func TestResolve_DirectoryIndexDeclarationOrder(t *testing.T) {
	fsys := tree("p/lib/index.ts", "p/lib/index.mjs")

	got, ok := New(fsys, []stage.Kind{stage.KindJS, stage.KindTS}).Resolve("./lib", "/p/a.js")
	assert.True(t, ok)
	assert.Equal(t, "/p/lib/index.mjs", got)

	got, ok = New(fsys, []stage.Kind{stage.KindTS, stage.KindJS}).Resolve("./lib", "/p/a.js")
	assert.True(t, ok)
	assert.Equal(t, "/p/lib/index.ts", got)
}

func TestResolve_ExtensionInference(t *testing.T) {
	cases := []struct {
		name  string
		files []string
		want  string
	}{
		{"canonical first", []string{"p/x.js", "p/x.cjs", "p/x.mjs"}, "/p/x.js"},
		{"commonjs flavour next", []string{"p/x.cjs", "p/x.mjs"}, "/p/x.cjs"},
		{"module flavour last", []string{"p/x.mjs"}, "/p/x.mjs"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := New(tree(tc.files...), []stage.Kind{stage.KindJS})
			got, ok := r.Resolve("./x", "/p/main.js")
			assert.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve_ExtensionInferenceAllInputKinds(t *testing.T) {
	r := New(tree("p/styles.css", "p/data.json"), []stage.Kind{stage.KindTS, stage.KindCSS, stage.KindJSON})

	got, ok := r.Resolve("./styles", "/p/main.ts")
	assert.True(t, ok)
	assert.Equal(t, "/p/styles.css", got)

	got, ok = r.Resolve("../p/data", "/p/main.ts")
	assert.True(t, ok)
	assert.Equal(t, "/p/data.json", got)

	assert.Equal(t, []string{"ts", "cts", "mts", "css", "json"}, r.Extensions())
}

func TestResolve_NotApplicableOrUnresolved(t *testing.T) {
	r := New(tree("p/main.ts", "p/node_modules/react/index.js"), []stage.Kind{stage.KindTS})

	_, ok := r.Resolve("react", "/p/main.ts")
	assert.False(t, ok, "bare specifier")

	_, ok = r.Resolve("./main", "")
	assert.False(t, ok, "entry point without importer")

	_, ok = r.Resolve("./missing", "/p/main.ts")
	assert.False(t, ok)

	_, ok = r.Resolve("./node_modules/react", "/p/main.ts")
	assert.False(t, ok, "js is not a configured kind")
}

func TestResolve_AbsoluteSpecifier(t *testing.T) {
	r := New(tree("abs/mod.ts"), []stage.Kind{stage.KindTS})
	got, ok := r.Resolve("/abs/mod", "/p/main.ts")
	assert.True(t, ok)
	assert.Equal(t, "/abs/mod.ts", got)
}

func TestResolve_TextKindUsesItsTag(t *testing.T) {
	r := New(tree("p/notes.text", "p/readme.txt"), []stage.Kind{stage.KindText})

	got, ok := r.Resolve("./notes", "/p/main.js")
	assert.True(t, ok)
	assert.Equal(t, "/p/notes.text", got)

	_, ok = r.Resolve("./readme", "/p/main.js")
	assert.False(t, ok)
}
