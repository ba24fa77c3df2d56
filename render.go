package csi

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin/render"
)

var _ render.HTMLRender = (*HtmlRender)(nil)

// HtmlRender gin HtmlRender compatible. Template names are paths relative to
// the root directory and are compiled on every render.
type HtmlRender struct {
	e    *Engine
	root string
}

// NewHTMLRender create a new HtmlRender
func NewHTMLRender(e *Engine, root string) *HtmlRender {
	return &HtmlRender{e: e, root: root}
}

// Instance returns a new render.Render. data may be a map[string]string of
// variables to preset; anything else is ignored.
func (h *HtmlRender) Instance(name string, data any) render.Render {
	vars, _ := data.(map[string]string)
	return &Render{e: h.e, path: filepath.Join(h.root, filepath.FromSlash(name)), vars: vars}
}

// Render compiles a template file and writes it to the response
type Render struct {
	e    *Engine
	path string
	vars map[string]string
}

// Render compiles the file and writes it to w. Nothing is written when the
// compile fails.
func (r *Render) Render(w http.ResponseWriter) error {
	out, err := r.e.CompileFileWith(r.path, r.vars)
	if err != nil {
		return err
	}
	r.WriteContentType(w)
	_, err = w.Write([]byte(out))
	return err
}

// WriteContentType write an HTML content type to the response header if not set
func (r *Render) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = []string{"text/html; charset=utf-8"}
	}
}
