package csi

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
)

// DefaultMaxDepth bounds include nesting.
const DefaultMaxDepth = 64

// Engine compiles template files. It holds only configuration, so a single
// Engine may compile independent files from several goroutines.
type Engine struct {
	fs       FileSystem
	env      Env
	strict   bool
	maxDepth int
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFileSystem sets where files are read from. Default: OSFileSystem.
func WithFileSystem(fsys FileSystem) Option {
	return func(e *Engine) {
		e.fs = fsys
	}
}

// WithEnv sets the fallback variable source. Default: OSEnv.
// Pass nil to disable the fallback.
func WithEnv(env Env) Option {
	return func(e *Engine) {
		e.env = env
	}
}

// WithStrict controls whether unrecognized directives fail the compile (true)
// or expand to nothing (false). Default: true.
func WithStrict(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithMaxDepth sets the maximum include nesting. Values < 1 keep the default.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine reading from the host filesystem.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		fs:       OSFileSystem{},
		env:      OSEnv{},
		strict:   true,
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.fs == nil {
		e.fs = OSFileSystem{}
	}
	return e
}

// NewEngineFS creates an engine reading from fsys, e.g. an embed.FS.
func NewEngineFS(fsys fs.FS, opts ...Option) *Engine {
	return NewEngine(append([]Option{WithFileSystem(NewFS(fsys))}, opts...)...)
}

// NewContext returns a fresh context bound to the engine's collaborators.
func (e *Engine) NewContext() *Context {
	return NewContext(e.fs, e.env)
}

// CompileFile compiles the file at path with a fresh context.
func (e *Engine) CompileFile(path string) (string, error) {
	return e.CompileFileWith(path, nil)
}

// CompileFileWith compiles the file at path with vars preset in the context.
func (e *Engine) CompileFileWith(path string, vars map[string]string) (string, error) {
	c := e.NewContext()
	for k, v := range vars {
		c.SetVar(k, v)
	}
	return e.compilePath(c, path, true, 0)
}

// CompileString compiles src as if it were the content of the file at path.
// path determines where relative includes resolve from and takes part in
// cycle detection; it does not need to exist.
func (e *Engine) CompileString(path, src string) (string, error) {
	c := e.NewContext()
	return e.compileContent(c, frame{path: path, dir: filepath.Dir(path)}, src)
}

// frame is the per-file compile scope. dir is the base for relative include
// paths and is never shared between files.
type frame struct {
	path  string
	dir   string
	depth int
}

func (e *Engine) compilePath(c *Context, path string, required bool, depth int) (string, error) {
	if depth > e.maxDepth {
		return "", newError(KindDepthExceeded, path, "", -1, "maximum include depth %d exceeded", e.maxDepth)
	}
	content, err := c.LoadFile(path, required)
	if err != nil {
		return "", err
	}
	return e.compileContent(c, frame{path: path, dir: filepath.Dir(path), depth: depth}, content)
}

func (e *Engine) compileContent(c *Context, f frame, content string) (string, error) {
	c.MarkActive(f.path)
	defer c.UnmarkActive(f.path)

	e.logger.Debug("Compiling file", "path", f.path, "depth", f.depth)

	var out strings.Builder
	out.Grow(len(content))
	for seg, err := range Scan(content) {
		if err != nil {
			var ce *Error
			if errors.As(err, &ce) && ce.Path == "" {
				ce.Path = f.path
			}
			return "", err
		}
		if seg.Kind == LiteralSegment {
			out.WriteString(seg.Text)
			continue
		}
		sub, err := e.interpret(c, f, seg, &out)
		if err != nil {
			return "", err
		}
		out.WriteString(sub)
	}
	return out.String(), nil
}
