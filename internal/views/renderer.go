package views

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/vyrodovalexey/managedproxy/internal/observability"
)

// DefaultExtension is the view file extension used when none is configured.
const DefaultExtension = ".html"

// ErrViewNotFound is returned when rendering an unknown view.
var ErrViewNotFound = errors.New("view not found")

// Renderer renders views to bytes.
type Renderer interface {
	Render(name string, data any) ([]byte, error)
}

// TemplateRenderer is a Renderer backed by a directory of html/template
// files.
type TemplateRenderer struct {
	dir       string
	extension string
	funcs     template.FuncMap
	logger    observability.Logger
	set       atomic.Pointer[template.Template]
}

// Option is a functional option for configuring the renderer.
type Option func(*TemplateRenderer)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(r *TemplateRenderer) {
		r.logger = logger
	}
}

// WithExtension sets the view file extension.
func WithExtension(ext string) Option {
	return func(r *TemplateRenderer) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		r.extension = ext
	}
}

// WithFuncs adds template functions.
func WithFuncs(funcs template.FuncMap) Option {
	return func(r *TemplateRenderer) {
		for k, v := range funcs {
			r.funcs[k] = v
		}
	}
}

// NewTemplateRenderer loads every view in dir.
func NewTemplateRenderer(dir string, opts ...Option) (*TemplateRenderer, error) {
	r := &TemplateRenderer{
		dir:       dir,
		extension: DefaultExtension,
		logger:    observability.NopLogger(),
		funcs: template.FuncMap{
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Dir returns the view directory.
func (r *TemplateRenderer) Dir() string {
	return r.dir
}

// Reload parses the view directory and swaps the template set. On error
// the current set stays active.
func (r *TemplateRenderer) Reload() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading views: %w", err)
	}

	set := template.New("").Funcs(r.funcs)
	count := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != r.extension {
			continue
		}
		src, err := os.ReadFile(filepath.Join(r.dir, e.Name()))
		if err != nil {
			return fmt.Errorf("reading view %s: %w", e.Name(), err)
		}
		name := strings.TrimSuffix(e.Name(), r.extension)
		if _, err := set.New(name).Parse(string(src)); err != nil {
			return fmt.Errorf("parsing view %s: %w", e.Name(), err)
		}
		count++
	}

	r.set.Store(set)
	r.logger.Info("views loaded",
		observability.String("dir", r.dir),
		observability.Int("count", count),
	)
	return nil
}

// Render executes the named view.
func (r *TemplateRenderer) Render(name string, data any) ([]byte, error) {
	set := r.set.Load()
	if set == nil {
		return nil, ErrViewNotFound
	}
	tmpl := set.Lookup(name)
	if tmpl == nil {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering view %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
