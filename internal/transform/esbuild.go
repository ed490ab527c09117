package transform

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/evanw/esbuild/pkg/api"

	"transpipe/internal/stage"
)

var ErrUnsupportedOption = errors.New("unsupported transform option")

// Esbuild runs esbuild's single-file transform inside the process.
type Esbuild struct {
	color bool
}

func NewEsbuild(color bool) *Esbuild { return &Esbuild{color: color} }

func (e *Esbuild) Transform(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts, err := esbuildOptions(req)
	if err != nil {
		return nil, err
	}
	res := api.Transform(req.Code, opts)
	if len(res.Errors) > 0 {
		msgs := api.FormatMessages(res.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage})
		return nil, errors.Mark(
			errors.Newf("esbuild %s: %s", req.Sourcefile, strings.TrimSpace(strings.Join(msgs, "\n"))),
			ErrTransformFailed)
	}
	out := &Response{Code: string(res.Code), Map: string(res.Map)}
	if len(res.Warnings) > 0 {
		out.Diagnostics = api.FormatMessages(res.Warnings, api.FormatMessagesOptions{
			Kind:  api.WarningMessage,
			Color: e.color,
		})
	}
	return out, nil
}

var loaders = map[stage.Kind]api.Loader{
	"":             api.LoaderJS,
	stage.KindJS:   api.LoaderJS,
	stage.KindJSX:  api.LoaderJSX,
	stage.KindTS:   api.LoaderTS,
	stage.KindTSX:  api.LoaderTSX,
	stage.KindCSS:  api.LoaderCSS,
	stage.KindJSON: api.LoaderJSON,
	stage.KindText: api.LoaderText,
	"base64":       api.LoaderBase64,
	"binary":       api.LoaderBinary,
	"dataurl":      api.LoaderDataURL,
	"default":      api.LoaderDefault,
	"empty":        api.LoaderEmpty,
	"global-css":   api.LoaderGlobalCSS,
	"local-css":    api.LoaderLocalCSS,
}

var targets = map[string]api.Target{
	"esnext": api.ESNext,
	"es5":    api.ES5,
	"es6":    api.ES2015,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
	"es2024": api.ES2024,
}

var engines = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"deno":    api.EngineDeno,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"hermes":  api.EngineHermes,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"node":    api.EngineNode,
	"opera":   api.EngineOpera,
	"rhino":   api.EngineRhino,
	"safari":  api.EngineSafari,
}

var engineRE = regexp.MustCompile(`^([a-z]+)([0-9][0-9.]*)$`)

func esbuildOptions(req *Request) (api.TransformOptions, error) {
	loader, ok := loaders[req.Kind]
	if !ok {
		return api.TransformOptions{}, errors.Wrapf(ErrUnsupportedOption, "loader %q", req.Kind)
	}
	o := api.TransformOptions{
		Loader:     loader,
		Sourcefile: req.Sourcefile,
		LogLevel:   api.LogLevelSilent,
	}
	if req.Sourcemap {
		o.Sourcemap = api.SourceMapExternal
	}
	for _, key := range req.Options.Keys() {
		if err := applyOption(&o, key, req.Options[key]); err != nil {
			return api.TransformOptions{}, errors.Mark(errors.Wrapf(err, "option %q", key), ErrUnsupportedOption)
		}
	}
	return o, nil
}

func applyOption(o *api.TransformOptions, key string, v any) error {
	var err error
	switch key {
	case "sourcemap":
		var on bool
		if on, err = asBool(v); err == nil && !on {
			o.Sourcemap = api.SourceMapNone
		}
	case "sourceRoot":
		o.SourceRoot, err = asString(v)
	case "sourcesContent":
		var on bool
		if on, err = asBool(v); err == nil && !on {
			o.SourcesContent = api.SourcesContentExclude
		}
	case "format":
		o.Format, err = pick(v, map[string]api.Format{
			"iife": api.FormatIIFE, "cjs": api.FormatCommonJS, "esm": api.FormatESModule,
		})
	case "globalName":
		o.GlobalName, err = asString(v)
	case "platform":
		o.Platform, err = pick(v, map[string]api.Platform{
			"browser": api.PlatformBrowser, "node": api.PlatformNode, "neutral": api.PlatformNeutral,
		})
	case "target":
		err = applyTarget(o, v)
	case "minify":
		var on bool
		if on, err = asBool(v); err == nil {
			o.MinifyWhitespace, o.MinifyIdentifiers, o.MinifySyntax = on, on, on
		}
	case "minifyWhitespace":
		o.MinifyWhitespace, err = asBool(v)
	case "minifyIdentifiers":
		o.MinifyIdentifiers, err = asBool(v)
	case "minifySyntax":
		o.MinifySyntax, err = asBool(v)
	case "lineLimit":
		o.LineLimit, err = asInt(v)
	case "charset":
		o.Charset, err = pick(v, map[string]api.Charset{"ascii": api.CharsetASCII, "utf8": api.CharsetUTF8})
	case "treeShaking":
		var on bool
		if on, err = asBool(v); err == nil {
			o.TreeShaking = api.TreeShakingFalse
			if on {
				o.TreeShaking = api.TreeShakingTrue
			}
		}
	case "ignoreAnnotations":
		o.IgnoreAnnotations, err = asBool(v)
	case "legalComments":
		o.LegalComments, err = pick(v, map[string]api.LegalComments{
			"none": api.LegalCommentsNone, "inline": api.LegalCommentsInline, "eof": api.LegalCommentsEndOfFile,
			"linked": api.LegalCommentsLinked, "external": api.LegalCommentsExternal,
		})
	case "drop":
		var names []string
		if names, err = asStrings(v); err == nil {
			for _, n := range names {
				switch n {
				case "console":
					o.Drop |= api.DropConsole
				case "debugger":
					o.Drop |= api.DropDebugger
				default:
					return errors.Wrapf(ErrUnsupportedOption, "drop %q", n)
				}
			}
		}
	case "dropLabels":
		o.DropLabels, err = asStrings(v)
	case "jsx":
		o.JSX, err = pick(v, map[string]api.JSX{
			"transform": api.JSXTransform, "preserve": api.JSXPreserve, "automatic": api.JSXAutomatic,
		})
	case "jsxFactory":
		o.JSXFactory, err = asString(v)
	case "jsxFragment":
		o.JSXFragment, err = asString(v)
	case "jsxImportSource":
		o.JSXImportSource, err = asString(v)
	case "jsxDev":
		o.JSXDev, err = asBool(v)
	case "jsxSideEffects":
		o.JSXSideEffects, err = asBool(v)
	case "tsconfigRaw":
		o.TsconfigRaw, err = asString(v)
	case "banner":
		o.Banner, err = asString(v)
	case "footer":
		o.Footer, err = asString(v)
	case "define":
		o.Define, err = asStringMap(v)
	case "pure":
		o.Pure, err = asStrings(v)
	case "keepNames":
		o.KeepNames, err = asBool(v)
	case "mangleProps":
		o.MangleProps, err = asString(v)
	case "reserveProps":
		o.ReserveProps, err = asString(v)
	case "mangleQuoted":
		var on bool
		if on, err = asBool(v); err == nil {
			o.MangleQuoted = api.MangleQuotedFalse
			if on {
				o.MangleQuoted = api.MangleQuotedTrue
			}
		}
	case "supported":
		o.Supported, err = asBoolMap(v)
	default:
		return ErrUnsupportedOption
	}
	return err
}

// applyTarget accepts "es2019", "chrome58" or a list mixing both.
func applyTarget(o *api.TransformOptions, v any) error {
	names, err := asStrings(v)
	if err != nil {
		return err
	}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if t, ok := targets[name]; ok {
			o.Target = t
			continue
		}
		m := engineRE.FindStringSubmatch(name)
		if m == nil {
			return errors.Wrapf(ErrUnsupportedOption, "target %q", name)
		}
		engine, ok := engines[m[1]]
		if !ok {
			return errors.Wrapf(ErrUnsupportedOption, "target %q", name)
		}
		o.Engines = append(o.Engines, api.Engine{Name: engine, Version: m[2]})
	}
	return nil
}

func pick[T any](v any, table map[string]T) (T, error) {
	var zero T
	s, err := asString(v)
	if err != nil {
		return zero, err
	}
	t, ok := table[s]
	if !ok {
		return zero, errors.Wrapf(ErrUnsupportedOption, "value %q", s)
	}
	return t, nil
}

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.Newf("want string, got %T", v)
	}
	return s, nil
}

func asBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, errors.Newf("want bool, got %T", v)
	}
	return b, nil
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, errors.Newf("want integer, got %v", n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		return i, errors.Wrap(err, "want integer")
	}
	return 0, errors.Newf("want integer, got %T", v)
}

func asStrings(v any) ([]string, error) {
	switch t := v.(type) {
	case string:
		return []string{t}, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, err := asString(e)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, errors.Newf("want string or list of strings, got %T", v)
}

func asStringMap(v any) (map[string]string, error) {
	switch t := v.(type) {
	case map[string]string:
		return t, nil
	case map[string]any:
		out := make(map[string]string, len(t))
		for k, e := range t {
			s, err := asString(e)
			if err != nil {
				return nil, errors.Wrapf(err, "key %q", k)
			}
			out[k] = s
		}
		return out, nil
	}
	return nil, errors.Newf("want string map, got %T", v)
}

func asBoolMap(v any) (map[string]bool, error) {
	switch t := v.(type) {
	case map[string]bool:
		return t, nil
	case map[string]any:
		out := make(map[string]bool, len(t))
		for k, e := range t {
			b, err := asBool(e)
			if err != nil {
				return nil, errors.Wrapf(err, "key %q", k)
			}
			out[k] = b
		}
		return out, nil
	}
	return nil, errors.Newf("want bool map, got %T", v)
}
