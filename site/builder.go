// Package site builds a whole source tree: templates are compiled with csi,
// every other file is copied verbatim.
package site

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	csi "github.com/dangdungcntt/go-csi"
	"github.com/dangdungcntt/go-csi/config"
)

// HiddenPrefix marks files and directories that are never written to the
// destination. They can still be included by path.
const HiddenPrefix = "_"

const (
	actionCompile = "compile"
	actionCopy    = "copy"
)

// Report summarizes a successful build.
type Report struct {
	BuildID  string
	Compiled int
	Copied   int
	Duration time.Duration
}

// Builder walks the source tree and writes the destination tree.
type Builder struct {
	engine     *csi.Engine
	source     string
	dest       string
	extensions []string
	logger     *slog.Logger
	metrics    *Metrics
}

// NewEngine creates the compiler for cfg. Site variables take precedence over
// the process environment, which is skipped entirely when IgnoreEnv is set.
func NewEngine(cfg *config.Config, logger *slog.Logger) *csi.Engine {
	env := csi.ChainEnv{csi.MapEnv(cfg.Vars)}
	if !cfg.Compiler.IgnoreEnv {
		env = append(env, csi.OSEnv{})
	}
	return csi.NewEngine(
		csi.WithEnv(env),
		csi.WithStrict(!cfg.Compiler.Lenient),
		csi.WithMaxDepth(cfg.Compiler.MaxDepth),
		csi.WithLogger(logger),
	)
}

// NewBuilder creates a builder. metrics may be nil.
func NewBuilder(engine *csi.Engine, cfg *config.Config, logger *slog.Logger, metrics *Metrics) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		engine:     engine,
		source:     cfg.Source,
		dest:       cfg.Destination,
		extensions: cfg.Extensions,
		logger:     logger,
		metrics:    metrics,
	}
}

// task is one file of the source tree and what happens to it.
type task struct {
	src    string
	dest   string
	rel    string
	action string
	output string
}

// Build compiles and copies the whole tree. Every template is compiled
// before anything is written, so a compile error leaves the destination
// untouched. The first error aborts the build.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{BuildID: uuid.NewString()}
	logger := b.logger.With("build_id", report.BuildID)

	err := b.build(ctx, logger, report)
	report.Duration = time.Since(start)
	b.metrics.recordBuild(err, report.Duration)
	if err != nil {
		logger.Error("Build failed", "error", err, "duration_ms", report.Duration.Milliseconds())
		return nil, err
	}

	logger.Info("Build complete",
		"source", b.source,
		"destination", b.dest,
		"compiled", report.Compiled,
		"copied", report.Copied,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

func (b *Builder) build(ctx context.Context, logger *slog.Logger, report *Report) error {
	tasks, err := b.plan()
	if err != nil {
		return err
	}

	for i := range tasks {
		t := &tasks[i]
		if t.action != actionCompile {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Debug("Compiling template", "path", t.rel)
		out, err := b.engine.CompileFile(t.src)
		if err != nil {
			return fmt.Errorf("compile %s: %w", t.rel, err)
		}
		t.output = out
	}

	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(t.dest), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", t.rel, err)
		}
		switch t.action {
		case actionCompile:
			if err := writeFile(t.dest, strings.NewReader(t.output), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", t.rel, err)
			}
			report.Compiled++
		case actionCopy:
			if err := copyFile(t.src, t.dest); err != nil {
				return fmt.Errorf("copy %s: %w", t.rel, err)
			}
			report.Copied++
		}
		b.metrics.recordFile(t.action)
		logger.Debug("Wrote file", "path", t.rel, "action", t.action)
	}
	return nil
}

// plan lists every file to produce, in lexical walk order.
func (b *Builder) plan() ([]task, error) {
	var tasks []task
	err := filepath.WalkDir(b.source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != b.source && strings.HasPrefix(d.Name(), HiddenPrefix) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.source, path)
		if err != nil {
			return err
		}
		action := actionCopy
		if b.IsTemplate(d.Name()) {
			action = actionCompile
		}
		tasks = append(tasks, task{
			src:    path,
			dest:   filepath.Join(b.dest, rel),
			rel:    filepath.ToSlash(rel),
			action: action,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", b.source, err)
	}
	return tasks, nil
}

// IsTemplate reports whether a file name ends with a compiled extension.
func (b *Builder) IsTemplate(name string) bool {
	for _, ext := range b.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func copyFile(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	info, err := f.Stat()
	if err != nil {
		return err
	}
	return writeFile(dest, f, info.Mode().Perm())
}
