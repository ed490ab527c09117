package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, cfgs ...Config) []Stage {
	t.Helper()
	stages, err := Compile(cfgs)
	require.NoError(t, err)
	return stages
}

func TestSelect_NoMatchIsUntransformed(t *testing.T) {
	stages := mustCompile(t, Config{Kind: KindTS}, Config{Kind: KindJSON})

	_, ok := Select("/proj/src/app.js", stages, false)
	assert.False(t, ok)

	_, ok = Select("/proj/node_modules/lib/index.ts", stages, false)
	assert.False(t, ok, "dependency directory is excluded by default")

	_, ok = Select("/proj/src/app.ts", stages, true)
	assert.False(t, ok, "input stages never apply to output chunks")
}

func TestSelect_UnionOfDisjointKeys(t *testing.T) {
	stages := mustCompile(t,
		Config{Kind: KindTSX, Options: Options{"target": "es2017"}},
		Config{Kind: KindTSX, Options: Options{"banner": "/* x */"}},
	)

	eff, ok := Select("/src/App.tsx", stages, false)
	require.True(t, ok)
	assert.Equal(t, KindTSX, eff.Kind)
	assert.Equal(t, Options{"target": "es2017", "banner": "/* x */"}, eff.Options)
}

func TestSelect_LaterOverridesExceptKind(t *testing.T) {
	stages := mustCompile(t,
		Config{Kind: KindJSX, Options: Options{"minify": false, "target": "es2015"}},
		Config{Kind: KindJS, Include: []string{`/\.[jt]sx?$/`}, Options: Options{"minify": true}},
	)

	eff, ok := Select("/src/Bar.jsx", stages, false)
	require.True(t, ok)
	assert.Equal(t, KindJSX, eff.Kind)
	assert.Equal(t, true, eff.Options["minify"])
	assert.Equal(t, "es2015", eff.Options["target"])
}

func TestSelect_DoesNotMutateStageOptions(t *testing.T) {
	first := Options{"a": 1}
	stages := mustCompile(t,
		Config{Kind: KindJS, Options: first},
		Config{Kind: KindJS, Options: Options{"a": 2}},
	)
	_, ok := Select("/x.js", stages, false)
	require.True(t, ok)
	assert.Equal(t, 1, stages[0].Options["a"])
	assert.Equal(t, 1, first["a"])
}

func TestCompile_Selectors(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		id   string
		want bool
	}{
		{"default include by extension", Config{Kind: KindCSS}, "/a/b.css", true},
		{"canonical extension only", Config{Kind: KindJS}, "/a/b.mjs", false},
		{"text kind matches its tag", Config{Kind: KindText}, "/notes/readme.text", true},
		{"text kind ignores txt", Config{Kind: KindText}, "/notes/readme.txt", false},
		{"other loader tag", Config{Kind: "base64"}, "/img/logo.base64", true},
		{"glob include", Config{Kind: KindTS, Include: []string{"src/**/*.ts"}}, "/repo/src/a/b.ts", true},
		{"glob include miss", Config{Kind: KindTS, Include: []string{"src/**/*.ts"}}, "/repo/lib/b.ts", false},
		{"regexp include", Config{Include: []string{`/\.m?[jt]s(?:x|on)?$/`}}, "/a/b.json", true},
		{"explicit exclude", Config{Kind: KindJSON, Exclude: []string{`/\.json$/`}}, "/a/b.json", false},
		{"empty exclude keeps dependencies", Config{Kind: KindJS, Exclude: []string{}}, "/p/node_modules/x.js", true},
		{"virtual module", Config{Kind: KindJS}, "\x00virtual.js", false},
		{"output stage", Config{Output: true, Include: []string{"*.js"}}, "/dist/chunk-1.js", true},
		{"output chunk name without directory", Config{Output: true, Include: []string{"*.js"}}, "index.js", true},
		{"output stage keeps dependencies", Config{Output: true, Include: []string{"**/*.js"}}, "/node_modules/x.js", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stages := mustCompile(t, tc.cfg)
			assert.Equal(t, tc.want, stages[0].Match(tc.id))
		})
	}
}

func TestCompile_RequiresSelector(t *testing.T) {
	_, err := Compile([]Config{{Options: Options{"minify": true}}})
	require.ErrorIs(t, err, ErrNoSelector)

	_, err = Compile([]Config{{Kind: KindJS, Output: true}})
	require.ErrorIs(t, err, ErrNoSelector)

	_, err = Compile([]Config{{Kind: KindJS, Include: []string{"/(/"}}})
	require.Error(t, err)
}

func TestInputKinds_DeclarationOrder(t *testing.T) {
	stages := mustCompile(t,
		Config{Kind: KindTSX},
		Config{Kind: KindJSON},
		Config{Kind: KindTSX, Options: Options{"minify": true}},
		Config{Kind: KindJS, Output: true, Include: []string{"*.js"}},
		Config{Include: []string{"*.mjs"}},
		Config{Kind: KindJS},
	)
	assert.Equal(t, []Kind{KindTSX, KindJSON, KindJS}, InputKinds(stages))
}

func TestKind(t *testing.T) {
	assert.Equal(t, []string{"ts", "cts", "mts"}, KindTS.Extensions())
	assert.Equal(t, []string{"jsx"}, KindJSX.Extensions())
	assert.True(t, KindTSX.ScriptLike())
	assert.False(t, KindJSON.ScriptLike())
	assert.Equal(t, KindJS, KindTS.Produces())
	assert.Equal(t, KindCSS, KindCSS.Produces())
}
