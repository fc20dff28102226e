package reportdef

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/kbukum/spindle/errors"
)

// Names of the built-in report definitions.
const (
	Advertisers = "advertisers"
	Performance = "performance"
)

const suffix = ".json.tmpl"

//go:embed templates/*.json.tmpl
var builtin embed.FS

var funcs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

// Set holds parsed report definition templates by name.
type Set struct {
	templates map[string]*template.Template
}

// Load parses the embedded templates and, when dir is not empty, the
// "*.json.tmpl" files in dir. A file in dir replaces the built-in template
// of the same name.
func Load(dir string) (*Set, error) {
	s := &Set{templates: make(map[string]*template.Template)}
	if err := s.parseFS(builtin, "templates"); err != nil {
		return nil, err
	}
	if dir == "" {
		return s, nil
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.ConfigInvalid("dv360.templates_dir", err.Error())
	}
	if err := s.parseFS(os.DirFS(dir), "."); err != nil {
		return nil, err
	}
	return s, nil
}

// MustLoad is like Load("") and panics on error. The embedded templates are
// checked by the package tests.
func MustLoad() *Set {
	s, err := Load("")
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Set) parseFS(fsys fs.FS, root string) error {
	matches, err := fs.Glob(fsys, filepath.ToSlash(filepath.Join(root, "*"+suffix)))
	if err != nil {
		return err
	}
	for _, path := range matches {
		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reportdef: read %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), suffix)
		tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(raw))
		if err != nil {
			return errors.TemplateInvalid(name, err)
		}
		s.templates[name] = tmpl
	}
	return nil
}

// Names returns the loaded template names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Expand renders the named definition for the given partners. The result
// is guaranteed to be valid JSON.
func (s *Set) Expand(name string, partners []string) ([]byte, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return nil, errors.NotFound("report definition", name)
	}

	var buf bytes.Buffer
	data := struct{ Partners []string }{Partners: partners}
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, errors.TemplateInvalid(name, err)
	}
	if !json.Valid(buf.Bytes()) {
		return nil, errors.TemplateInvalid(name, fmt.Errorf("rendered output is not valid JSON"))
	}
	return buf.Bytes(), nil
}
