package main

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"transpipe/internal/engine"
)

// destination picks the output path for src. Transformed script files become
// .js; css keeps its extension; untransformed files keep their name.
func destination(src, outDir string, transformed bool) string {
	dir, base := filepath.Split(src)
	if outDir != "" {
		dir = outDir
	}
	if transformed {
		ext := filepath.Ext(base)
		if ext != ".css" {
			base = strings.TrimSuffix(base, ext) + ".js"
		}
	}
	return filepath.Join(dir, base)
}

// outputs tracks which input owns each destination of a run. A destination
// may not be another input, nor be shared by two inputs.
type outputs struct {
	mu      sync.Mutex
	inputs  map[string]bool
	claimed map[string]string
}

func newOutputs(files []string) (*outputs, error) {
	o := &outputs{inputs: make(map[string]bool, len(files)), claimed: make(map[string]string, len(files))}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", f)
		}
		o.inputs[abs] = true
	}
	return o, nil
}

func (o *outputs) claim(src, dest string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if dest != src && o.inputs[dest] {
		return errors.Newf("%s: output %s would overwrite another input", src, dest)
	}
	if other, ok := o.claimed[dest]; ok && other != src {
		return errors.Newf("%s: output %s is also written by %s", src, dest, other)
	}
	o.claimed[dest] = src
	return nil
}

// writeResult writes code, plus the mapping and a trailing reference to it
// when one was produced.
func writeResult(dest string, res *engine.Result) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrap(err, "output dir")
	}
	code := res.Code
	if res.Map != "" {
		mapPath := dest + ".map"
		if err := os.WriteFile(mapPath, []byte(res.Map), 0o644); err != nil {
			return errors.Wrap(err, "write map")
		}
		code = withMapComment(code, filepath.Base(mapPath), filepath.Ext(dest) == ".css")
	}
	return errors.Wrap(os.WriteFile(dest, []byte(code), 0o644), "write output")
}

func withMapComment(code, ref string, css bool) string {
	if !strings.HasSuffix(code, "\n") && code != "" {
		code += "\n"
	}
	if css {
		return code + "/*# sourceMappingURL=" + ref + " */\n"
	}
	return code + "//# sourceMappingURL=" + ref + "\n"
}
