// Package resolve infers file extensions and directory index files for
// relative import specifiers, limited to the kinds a pipeline transforms.
package resolve

import (
	"os"
	"path/filepath"

	"transpipe/internal/stage"
)

// Resolver is immutable and safe for concurrent use.
type Resolver struct {
	fs       FS
	exts     []string
	indexExt []string
}

// New builds a resolver for the given input kinds, in declaration order.
func New(fsys FS, kinds []stage.Kind) *Resolver {
	r := &Resolver{fs: fsys}
	for _, k := range kinds {
		r.exts = append(r.exts, k.Extensions()...)
		if k.ScriptLike() {
			r.indexExt = append(r.indexExt, k.Extensions()...)
		}
	}
	return r
}

// Applies reports whether specifier looks like a filesystem path this
// resolver handles; bare package names are left to the host.
func Applies(specifier, importer string) bool {
	if importer == "" || specifier == "" {
		return false
	}
	return specifier[0] == '.' || specifier[0] == '/' || specifier[0] == os.PathSeparator
}

// Resolve returns the concrete file for specifier imported from importer, or
// false when the host should fall back to its own resolution.
func (r *Resolver) Resolve(specifier, importer string) (string, bool) {
	if !Applies(specifier, importer) {
		return "", false
	}
	candidate := filepath.Join(filepath.Dir(importer), specifier)
	if filepath.IsAbs(specifier) {
		candidate = filepath.Clean(specifier)
	}

	info, err := r.fs.Stat(candidate)
	switch {
	case err != nil:
		return r.first(candidate+".", r.exts)
	case info.IsDir():
		return r.first(filepath.Join(candidate, "index")+".", r.indexExt)
	default:
		return candidate, true
	}
}

func (r *Resolver) first(prefix string, exts []string) (string, bool) {
	for _, ext := range exts {
		name := prefix + ext
		if info, err := r.fs.Stat(name); err == nil && !info.IsDir() {
			return name, true
		}
	}
	return "", false
}

// Extensions returns the extension search order used for missing paths.
func (r *Resolver) Extensions() []string {
	return append([]string(nil), r.exts...)
}
