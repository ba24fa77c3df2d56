package csi

import (
	"errors"
	"io/fs"
	"maps"
	"path/filepath"
)

// Context holds the state of one top-level compile: the variables visible to
// directives and the files currently being compiled.
type Context struct {
	fs   FileSystem
	env  Env
	vars map[string]string
	// active is keyed by canonical identity
	active map[string]struct{}
}

// NewContext creates an empty context. A nil env disables the fallback lookup.
func NewContext(fsys FileSystem, env Env) *Context {
	if fsys == nil {
		fsys = OSFileSystem{}
	}
	return &Context{
		fs:     fsys,
		env:    env,
		vars:   map[string]string{},
		active: map[string]struct{}{},
	}
}

func (c *Context) SetVar(name, value string) {
	c.vars[name] = value
}

func (c *Context) RemoveVar(name string) {
	delete(c.vars, name)
}

// LookupVar checks the local variables first, then the environment.
func (c *Context) LookupVar(name string) (string, bool) {
	if v, ok := c.vars[name]; ok {
		return v, true
	}
	if c.env == nil {
		return "", false
	}
	return c.env.LookupEnv(name)
}

// Vars returns a copy of the local variables.
func (c *Context) Vars() map[string]string {
	return maps.Clone(c.vars)
}

func (c *Context) snapshot() map[string]string {
	return maps.Clone(c.vars)
}

func (c *Context) restore(vars map[string]string) {
	c.vars = vars
}

func (c *Context) MarkActive(path string) {
	c.active[c.identity(path)] = struct{}{}
}

func (c *Context) UnmarkActive(path string) {
	delete(c.active, c.identity(path))
}

func (c *Context) IsActive(path string) bool {
	_, ok := c.active[c.identity(path)]
	return ok
}

// identity falls back to the cleaned path when canonicalization fails, so
// mark and unmark stay symmetric for the same input.
func (c *Context) identity(path string) string {
	id, err := c.fs.Canonicalize(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return id
}

// LoadFile reads the whole file. A missing file is an error only when
// required; otherwise it loads as empty content.
func (c *Context) LoadFile(path string, required bool) (string, error) {
	if !c.fs.Exists(path) {
		if !required {
			return "", nil
		}
		return "", &Error{
			Kind:    KindIO,
			Path:    path,
			Offset:  -1,
			Message: "cannot read file",
			Err:     fs.ErrNotExist,
		}
	}
	raw, err := c.fs.ReadFile(path)
	if err != nil {
		e := &Error{Kind: KindIO, Path: path, Offset: -1, Message: "cannot read file", Err: err}
		var pe *fs.PathError
		if errors.As(err, &pe) {
			e.Err = pe.Err
		}
		return "", e
	}
	return string(raw), nil
}
