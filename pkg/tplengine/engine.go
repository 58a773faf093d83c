package tplengine

import (
	"bytes"
	"fmt"
	"maps"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateEngine renders named prompt templates with sprig helpers available.
type TemplateEngine struct {
	mu           sync.RWMutex
	templates    map[string]*template.Template
	globalValues map[string]any
}

// NewEngine creates an empty template engine.
func NewEngine() *TemplateEngine {
	return &TemplateEngine{
		templates:    make(map[string]*template.Template),
		globalValues: make(map[string]any),
	}
}

func newTemplate(name, templateStr string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Funcs(sprig.TxtFuncMap()).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", name, err)
	}
	return tmpl, nil
}

// AddTemplate adds a template to the engine
func (e *TemplateEngine) AddTemplate(name, templateStr string) error {
	tmpl, err := newTemplate(name, templateStr)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.templates[name] = tmpl
	e.mu.Unlock()
	return nil
}

// MustAddTemplate is AddTemplate for templates compiled into the binary.
func (e *TemplateEngine) MustAddTemplate(name, templateStr string) *TemplateEngine {
	if err := e.AddTemplate(name, templateStr); err != nil {
		panic(err)
	}
	return e
}

// WithGlobalValues sets values available to every render.
func (e *TemplateEngine) WithGlobalValues(values map[string]any) *TemplateEngine {
	e.mu.Lock()
	maps.Copy(e.globalValues, values)
	e.mu.Unlock()
	return e
}

// HasTemplate returns true if the template contains template markers
func HasTemplate(template string) bool {
	return strings.Contains(template, "{{")
}

// Render renders a template by name
func (e *TemplateEngine) Render(name string, context map[string]any) (string, error) {
	e.mu.RLock()
	tmpl, ok := e.templates[name]
	e.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}
	return e.renderTemplate(tmpl, context)
}

// RenderString renders a template string
func (e *TemplateEngine) RenderString(templateStr string, context map[string]any) (string, error) {
	if !HasTemplate(templateStr) {
		return templateStr, nil
	}
	tmpl, err := newTemplate("inline", templateStr)
	if err != nil {
		return "", err
	}
	return e.renderTemplate(tmpl, context)
}

func (e *TemplateEngine) renderTemplate(tmpl *template.Template, context map[string]any) (string, error) {
	values := make(map[string]any, len(context)+len(e.globalValues))
	e.mu.RLock()
	maps.Copy(values, e.globalValues)
	e.mu.RUnlock()
	maps.Copy(values, context)
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, values); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return buf.String(), nil
}
