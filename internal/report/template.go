package report

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/harrison/benchdoc/internal/models"
)

//go:embed templates/readme.md.tmpl
var defaultTemplate string

// Template is a parsed report template. Tables are substituted through the
// `table "<target>"` placeholder; every target must be referenced exactly once.
type Template struct {
	name string
	tmpl *template.Template
}

// DefaultTemplate returns the built-in README template
func DefaultTemplate() *Template {
	t, err := ParseTemplate("readme.md", defaultTemplate)
	if err != nil {
		panic(fmt.Sprintf("built-in template is invalid: %v", err))
	}
	return t
}

// ParseTemplate parses template text
func ParseTemplate(name, text string) (*Template, error) {
	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(template.FuncMap{"table": unboundTable}).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return &Template{name: name, tmpl: tmpl}, nil
}

// LoadTemplate reads and parses a template file
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return ParseTemplate(filepath.Base(path), string(data))
}

// Name returns the template name
func (t *Template) Name() string {
	return t.name
}

func unboundTable(name string) (string, error) {
	return "", errors.New("table placeholder used outside of rendering")
}

// tableBinding tracks which targets a render has substituted
type tableBinding struct {
	tables   map[string]string
	used     map[string]bool
	mismatch error
}

func (b *tableBinding) lookup(name string) (string, error) {
	text, ok := b.tables[name]
	switch {
	case !ok:
		b.mismatch = fmt.Errorf("%w: unknown target %q", ErrTemplateMismatch, name)
	case b.used[name]:
		b.mismatch = fmt.Errorf("%w: target %q referenced more than once", ErrTemplateMismatch, name)
	default:
		b.used[name] = true
		return text, nil
	}
	return "", b.mismatch
}

// Render substitutes the tables into the template. Nothing is returned unless
// every target's table was placed exactly once.
func (t *Template) Render(m *models.Manifest, tables []models.FormattedTable) ([]byte, error) {
	binding := &tableBinding{
		tables: make(map[string]string, len(tables)),
		used:   make(map[string]bool, len(tables)),
	}
	for _, table := range tables {
		binding.tables[table.Target.Name] = table.Text
	}

	tmpl, err := t.tmpl.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to clone template: %w", err)
	}
	tmpl.Funcs(template.FuncMap{"table": binding.lookup})

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, m); err != nil {
		if binding.mismatch != nil {
			return nil, binding.mismatch
		}
		return nil, fmt.Errorf("failed to render template %s: %w", t.name, err)
	}

	var unused []string
	for _, target := range m.Targets {
		if !binding.used[target.Name] {
			unused = append(unused, target.Name)
		}
	}
	if len(unused) > 0 {
		return nil, fmt.Errorf("%w: no placeholder for %s", ErrTemplateMismatch, strings.Join(unused, ", "))
	}

	return buf.Bytes(), nil
}

// Check renders the template with empty tables to surface placeholder
// mismatches before any formatter is run.
func (t *Template) Check(m *models.Manifest) error {
	tables := make([]models.FormattedTable, len(m.Targets))
	for i, target := range m.Targets {
		tables[i] = models.FormattedTable{Target: target}
	}
	_, err := t.Render(m, tables)
	return err
}
