// Package server serves a source tree over HTTP, compiling templates on
// every request.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	csi "github.com/dangdungcntt/go-csi"
)

// IndexFile is served for directory requests.
const IndexFile = "index.html"

// Server is the preview server.
type Server struct {
	engine     *csi.Engine
	root       string
	isTemplate func(name string) bool
	logger     *slog.Logger
	gatherer   prometheus.Gatherer
	router     *gin.Engine
}

// New creates a preview server for root. isTemplate decides which files are
// compiled; gatherer backs /metrics and may be nil.
func New(engine *csi.Engine, root string, isTemplate func(string) bool, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:     engine,
		root:       root,
		isTemplate: isTemplate,
		logger:     logger,
		gatherer:   gatherer,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())
	r.HTMLRender = csi.NewHTMLRender(s.engine, s.root)

	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	r.NoRoute(s.serveFile)
	return r
}

// serveFile compiles or copies the file a request path points to. Paths with
// a hidden segment are not served.
func (s *Server) serveFile(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.String(http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	clean := path.Clean("/" + c.Request.URL.Path)
	for _, seg := range strings.Split(clean, "/") {
		if strings.HasPrefix(seg, "_") {
			c.String(http.StatusNotFound, "not found")
			return
		}
	}

	rel := strings.TrimPrefix(clean, "/")
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		rel = path.Join(rel, IndexFile)
		full = filepath.Join(full, IndexFile)
		info, err = os.Stat(full)
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.String(http.StatusNotFound, "not found")
			return
		}
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	if !s.isTemplate(info.Name()) {
		c.File(full)
		return
	}

	vars := map[string]string{}
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			vars[k] = v[0]
		}
	}

	c.HTML(http.StatusOK, rel, vars)
	if len(c.Errors) > 0 {
		err := c.Errors.Last().Err
		s.logger.Error("Compile failed", "path", rel, "error", err)
		c.String(http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Request served",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Preview server listening", "address", addr, "root", s.root)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
