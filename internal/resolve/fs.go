package resolve

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FS is the read-only filesystem capability the resolver needs.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
}

type osFS struct{}

func (osFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

// OS returns the host filesystem.
func OS() FS { return osFS{} }

type ioFS struct{ fsys fs.FS }

func (f ioFS) Stat(name string) (fs.FileInfo, error) {
	name = strings.TrimPrefix(filepath.ToSlash(name), "/")
	if name == "" {
		name = "."
	}
	return fs.Stat(f.fsys, name)
}

// FromFS exposes an io/fs tree as an FS rooted at "/", so absolute paths such
// as /proj/src/a.ts are looked up as proj/src/a.ts.
func FromFS(fsys fs.FS) FS { return ioFS{fsys} }
