package render

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"text/template"
)

// Renderer handles template parsing and rendering with caching
type Renderer struct {
	funcMap     template.FuncMap
	cache       map[string]*template.Template
	mu          sync.RWMutex // Protect cache for concurrent access
	overrideDir string
}

// Option configures a Renderer
type Option func(*Renderer)

// WithOverrideDir makes Render prefer templates found in dir
func WithOverrideDir(dir string) Option {
	return func(r *Renderer) { r.overrideDir = dir }
}

// WithFuncs adds template functions, replacing built-ins of the same name
func WithFuncs(funcs template.FuncMap) Option {
	return func(r *Renderer) {
		for name, fn := range funcs {
			r.funcMap[name] = fn
		}
	}
}

// NewRenderer creates a renderer with built-in helper functions
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		funcMap: defaultFuncMap(),
		cache:   make(map[string]*template.Template),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders name from fsys, or from the override directory when it holds
// a file with the same base name
func (r *Renderer) Render(fsys fs.FS, name string, data any) ([]byte, error) {
	if r.overrideDir != "" {
		override := filepath.Join(r.overrideDir, filepath.Base(name))
		if _, err := os.Stat(override); err == nil {
			return r.RenderFile(override, data)
		}
	}
	return r.RenderFS(fsys, name, data)
}

// RenderString renders a template from a string
// The name is used for caching and error messages
func (r *Renderer) RenderString(name, templateStr string, data any) ([]byte, error) {
	tmpl, err := r.load(r.getCacheKey("string", name), name, func() ([]byte, error) {
		return []byte(templateStr), nil
	})
	if err != nil {
		return nil, err
	}
	return r.executeTemplate(tmpl, data)
}

// RenderFS renders a template from a filesystem (typically embed.FS)
func (r *Renderer) RenderFS(fsys fs.FS, path string, data any) ([]byte, error) {
	tmpl, err := r.load(r.getCacheKey("fs", path), path, func() ([]byte, error) {
		b, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read template from fs '%s': %w", path, err)
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return r.executeTemplate(tmpl, data)
}

// RenderFile renders a template from a file path
func (r *Renderer) RenderFile(path string, data any) ([]byte, error) {
	tmpl, err := r.load(r.getCacheKey("file", path), path, func() ([]byte, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read template file '%s': %w", path, err)
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return r.executeTemplate(tmpl, data)
}

// ClearCache clears the template cache (useful for testing)
func (r *Renderer) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*template.Template)
}

func (r *Renderer) load(cacheKey, name string, read func() ([]byte, error)) (*template.Template, error) {
	// Check cache with read lock
	r.mu.RLock()
	if tmpl, ok := r.cache[cacheKey]; ok {
		r.mu.RUnlock()
		return tmpl, nil
	}
	r.mu.RUnlock()

	src, err := read()
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Funcs(r.funcMap).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", name, err)
	}

	// Cache with write lock
	r.mu.Lock()
	r.cache[cacheKey] = tmpl
	r.mu.Unlock()

	return tmpl, nil
}

// executeTemplate executes a parsed template with the given data
func (r *Renderer) executeTemplate(tmpl *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template '%s': %w", tmpl.Name(), err)
	}
	return buf.Bytes(), nil
}

// getCacheKey generates a cache key for a template
func (r *Renderer) getCacheKey(typ, identifier string) string {
	return fmt.Sprintf("%s:%s", typ, identifier)
}
