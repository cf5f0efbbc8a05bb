// Package render provides the pongo2-backed implementation of the template
// renderer contract. Templates are compiled once at construction and looked up
// by file name, with or without the .html extension.
package render

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Renderer compiles templates from a filesystem and renders them with pongo2.
type Renderer struct {
	mu        sync.RWMutex
	templates map[string]*pongo2.Template
}

var _ interfaces.TemplateRenderer = (*Renderer)(nil)

// NewRenderer walks the supplied filesystem and compiles every .html template.
func NewRenderer(filesystem fs.FS) (*Renderer, error) {
	if filesystem == nil {
		return nil, fmt.Errorf("render: template filesystem is required")
	}

	templates := map[string]*pongo2.Template{}
	err := fs.WalkDir(filesystem, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".html") {
			return nil
		}
		data, err := fs.ReadFile(filesystem, path)
		if err != nil {
			return fmt.Errorf("render: read template %s: %w", path, err)
		}
		compiled, err := pongo2.FromBytes(data)
		if err != nil {
			return fmt.Errorf("render: compile template %s: %w", path, err)
		}
		templates[filepath.ToSlash(path)] = compiled
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("render: no templates found")
	}

	return &Renderer{templates: templates}, nil
}

// RenderTemplate executes the named template with the provided data.
func (r *Renderer) RenderTemplate(name string, data map[string]any) (string, error) {
	tpl, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	out, err := tpl.Execute(pongo2.Context(data))
	if err != nil {
		return "", fmt.Errorf("render: execute template %s: %w", name, err)
	}
	return out, nil
}

// RenderString compiles and executes an inline template.
func (r *Renderer) RenderString(templateContent string, data map[string]any) (string, error) {
	tpl, err := pongo2.FromString(templateContent)
	if err != nil {
		return "", fmt.Errorf("render: compile inline template: %w", err)
	}
	out, err := tpl.Execute(pongo2.Context(data))
	if err != nil {
		return "", fmt.Errorf("render: execute inline template: %w", err)
	}
	return out, nil
}

// RegisterFilter exposes pongo2 filter registration behind the renderer
// contract. Registration is engine-global, matching pongo2 semantics.
func (r *Renderer) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("render: filter name is required")
	}
	if fn == nil {
		return fmt.Errorf("render: filter function is required")
	}
	return pongo2.RegisterFilter(name, func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		out, err := fn(in.Interface(), param.Interface())
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(out), nil
	})
}

// Names lists the compiled template names in stable order.
func (r *Renderer) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Renderer) lookup(name string) (*pongo2.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := filepath.ToSlash(strings.TrimSpace(name))
	if tpl, ok := r.templates[key]; ok {
		return tpl, nil
	}
	if tpl, ok := r.templates[key+".html"]; ok {
		return tpl, nil
	}
	return nil, fmt.Errorf("render: template %q not found", name)
}
