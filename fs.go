package csi

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystem is the file access the compiler needs.
type FileSystem interface {
	Exists(name string) bool
	ReadFile(name string) ([]byte, error)
	// Canonicalize returns a stable identity for name, so that different
	// spellings of the same file compare equal.
	Canonicalize(name string) (string, error)
}

// OSFileSystem reads from the host filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// Canonicalize resolves name to an absolute path with symlinks evaluated.
// Files that do not exist yet resolve to their cleaned absolute path.
func (OSFileSystem) Canonicalize(name string) (string, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return abs, nil
		}
		return "", err
	}
	return resolved, nil
}

type ioFS struct {
	fsys fs.FS
}

// NewFS adapts an fs.FS (embed.FS, fstest.MapFS, os.DirFS) to a FileSystem.
// Names are slash-cleaned and a leading "/" is dropped; fs.FS has no symlink
// resolution, so the cleaned name is the identity.
func NewFS(fsys fs.FS) FileSystem {
	return ioFS{fsys: fsys}
}

func (f ioFS) name(name string) string {
	n := path.Clean(filepath.ToSlash(name))
	n = strings.TrimPrefix(n, "/")
	if n == "" {
		return "."
	}
	return n
}

func (f ioFS) Exists(name string) bool {
	_, err := fs.Stat(f.fsys, f.name(name))
	return err == nil
}

func (f ioFS) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(f.fsys, f.name(name))
}

func (f ioFS) Canonicalize(name string) (string, error) {
	return f.name(name), nil
}
