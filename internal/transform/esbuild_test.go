package transform

import (
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transpipe/internal/sourcemap"
	"transpipe/internal/stage"
)

func TestEsbuildOptions_MapsOptionBag(t *testing.T) {
	o, err := esbuildOptions(&Request{
		Kind:       stage.KindTSX,
		Sourcefile: "/src/App.tsx",
		Sourcemap:  true,
		Options: stage.Options{
			"target":        []any{"es2019", "chrome58", "node16.3"},
			"format":        "esm",
			"minify":        true,
			"banner":        "/* b */",
			"define":        map[string]any{"DEBUG": "false"},
			"drop":          []string{"console", "debugger"},
			"jsx":           "automatic",
			"legalComments": "eof",
			"treeShaking":   false,
			"lineLimit":     80.0,
			"supported":     map[string]any{"bigint": false},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, api.LoaderTSX, o.Loader)
	assert.Equal(t, "/src/App.tsx", o.Sourcefile)
	assert.Equal(t, api.SourceMapExternal, o.Sourcemap)
	assert.Equal(t, api.ES2019, o.Target)
	assert.Equal(t, []api.Engine{{Name: api.EngineChrome, Version: "58"}, {Name: api.EngineNode, Version: "16.3"}}, o.Engines)
	assert.Equal(t, api.FormatESModule, o.Format)
	assert.True(t, o.MinifyWhitespace && o.MinifyIdentifiers && o.MinifySyntax)
	assert.Equal(t, "/* b */", o.Banner)
	assert.Equal(t, map[string]string{"DEBUG": "false"}, o.Define)
	assert.Equal(t, api.DropConsole|api.DropDebugger, o.Drop)
	assert.Equal(t, api.JSXAutomatic, o.JSX)
	assert.Equal(t, api.LegalCommentsEndOfFile, o.LegalComments)
	assert.Equal(t, api.TreeShakingFalse, o.TreeShaking)
	assert.Equal(t, 80, o.LineLimit)
	assert.Equal(t, map[string]bool{"bigint": false}, o.Supported)
	assert.Equal(t, api.LogLevelSilent, o.LogLevel)
}

func TestEsbuildOptions_LanguageTargets(t *testing.T) {
	cases := map[string]api.Target{
		"es5":    api.ES5,
		"es2015": api.ES2015,
		"es2022": api.ES2022,
		"es2023": api.ES2023,
		"es2024": api.ES2024,
		"esnext": api.ESNext,
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			o, err := esbuildOptions(&Request{Kind: stage.KindJS, Options: stage.Options{"target": name}})
			require.NoError(t, err)
			assert.Equal(t, want, o.Target)
			assert.Empty(t, o.Engines)
		})
	}
}

func TestEsbuildOptions_Rejects(t *testing.T) {
	cases := map[string]*Request{
		"unknown key":   {Options: stage.Options{"plugins": []any{}}},
		"wrong type":    {Options: stage.Options{"minify": "yes"}},
		"bad enum":      {Options: stage.Options{"format": "umd"}},
		"bad target":    {Options: stage.Options{"target": "netscape4"}},
		"fractional":    {Options: stage.Options{"lineLimit": 1.5}},
		"bad drop":      {Options: stage.Options{"drop": "alert"}},
		"unknown kind":  {Kind: "wasm"},
		"bad map value": {Options: stage.Options{"define": map[string]any{"A": 1}}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := esbuildOptions(req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsupportedOption), "%v", err)
		})
	}
}

func TestEsbuild_Transform(t *testing.T) {
	e := NewInProcessClient(NewEsbuild(false))

	resp, err := e.Transform(context.Background(), &Request{
		Code:       "const x = 1 + 1;\n",
		Kind:       stage.KindJS,
		Sourcefile: "/src/x.js",
		Sourcemap:  true,
		Options:    stage.Options{"minify": true},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Code, "const x="), resp.Code)
	assert.NotContains(t, resp.Code, " ")
	assert.Empty(t, resp.Diagnostics)

	m, err := sourcemap.ParseString(resp.Map)
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/x.js"}, m.Sources)
	assert.NotEmpty(t, m.MappedEntries())
}

func TestEsbuild_NoMapUnlessRequested(t *testing.T) {
	resp, err := NewEsbuild(false).Transform(context.Background(), &Request{Code: "a()", Kind: stage.KindJS})
	require.NoError(t, err)
	assert.Equal(t, "a();\n", resp.Code)
	assert.Empty(t, resp.Map)
}

func TestEsbuild_WarningsBecomeDiagnostics(t *testing.T) {
	resp, err := NewEsbuild(false).Transform(context.Background(), &Request{
		Code:       "export default { a: 1, a: 2 };\n",
		Kind:       stage.KindJS,
		Sourcefile: "dup.js",
	})
	require.NoError(t, err)
	require.Len(t, resp.Diagnostics, 1)
	assert.Contains(t, resp.Diagnostics[0], `Duplicate key "a"`)
}

func TestEsbuild_SyntaxErrorIsFatal(t *testing.T) {
	_, err := NewEsbuild(false).Transform(context.Background(), &Request{Code: "let = ;", Kind: stage.KindJS, Sourcefile: "bad.js"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransformFailed))
	assert.Contains(t, err.Error(), "bad.js")
}

func TestEsbuild_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEsbuild(false).Transform(ctx, &Request{Code: "a()"})
	assert.ErrorIs(t, err, context.Canceled)
}
