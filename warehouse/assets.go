package warehouse

import (
	"bytes"
	"embed"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/kbukum/spindle/errors"
)

// Names of the built-in post-load queries.
const (
	CreateTable = "create_table"
	CreateViews = "create_views"
)

//go:embed queries/*.sql
var builtinSQL embed.FS

//go:embed schema/report.json
var reportSchema []byte

// ReportSchema returns the built-in schema of the performance report table.
func ReportSchema() []byte {
	return bytes.Clone(reportSchema)
}

// SQLParams are the values SQL files are rendered with.
type SQLParams struct {
	Project string
	Dataset string
}

// SQLSet holds the post-load SQL templates by name.
type SQLSet struct {
	templates map[string]*template.Template
}

// LoadSQL parses the embedded SQL files and, when dir is not empty, the
// "*.sql" files in dir. A file in dir replaces the built-in file of the
// same name.
func LoadSQL(dir string) (*SQLSet, error) {
	s := &SQLSet{templates: make(map[string]*template.Template)}
	if err := s.parseFS(builtinSQL, "queries"); err != nil {
		return nil, err
	}
	if dir == "" {
		return s, nil
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.ConfigInvalid("warehouse.sql_dir", err.Error())
	}
	if err := s.parseFS(os.DirFS(dir), "."); err != nil {
		return nil, err
	}
	return s, nil
}

// MustLoadSQL returns the built-in SQL set and panics on error.
func MustLoadSQL() *SQLSet {
	s, err := LoadSQL("")
	if err != nil {
		panic(err)
	}
	return s
}

func (s *SQLSet) parseFS(fsys fs.FS, dir string) error {
	files, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return errors.Internal(err)
	}
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return errors.Internal(err)
		}
		name := strings.TrimSuffix(path.Base(f), ".sql")
		tmpl, err := template.New(name).Option("missingkey=error").Parse(string(data))
		if err != nil {
			return errors.ConfigInvalid("warehouse.sql_dir", err.Error()).WithDetail("query", name)
		}
		s.templates[name] = tmpl
	}
	return nil
}

// Names returns the available query names in order.
func (s *SQLSet) Names() []string {
	names := make([]string, 0, len(s.templates))
	for n := range s.templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Render returns the SQL of the named query for p.
func (s *SQLSet) Render(name string, p SQLParams) (string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", errors.NotFound("query", name)
	}
	if p.Project == "" || p.Dataset == "" {
		return "", errors.InvalidInput("sql", "project and dataset are required")
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, p); err != nil {
		return "", errors.ConfigInvalid("warehouse.sql_dir", err.Error()).WithDetail("query", name)
	}
	return buf.String(), nil
}
