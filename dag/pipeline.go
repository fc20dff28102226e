package dag

import (
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// Pipeline is a serialisable description of a DAG.
type Pipeline struct {
	Name        string      `yaml:"name" json:"name"`
	Schedule    string      `yaml:"schedule" json:"schedule"`
	Catchup     bool        `yaml:"catchup" json:"catchup"`
	DefaultView string      `yaml:"default_view" json:"default_view"`
	DefaultArgs DefaultArgs `yaml:"default_args" json:"default_args"`
	Levels      [][]string  `yaml:"levels" json:"levels"`
	Nodes       []NodeDef   `yaml:"nodes" json:"nodes"`
}

// NodeDef describes one node within a pipeline.
type NodeDef struct {
	ID          string      `yaml:"id" json:"id"`
	Kind        string      `yaml:"kind" json:"kind"`
	TriggerRule TriggerRule `yaml:"trigger_rule" json:"trigger_rule"`
	DependsOn   []string    `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
}

// Describe builds the Pipeline view of d.
func Describe(d *DAG) (*Pipeline, error) {
	levels, err := BuildLevels(d.Graph)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		Name:        d.ID,
		Schedule:    d.Schedule,
		Catchup:     d.Catchup,
		DefaultView: d.DefaultView,
		DefaultArgs: d.DefaultArgs,
		Levels:      levels,
	}
	for _, name := range d.Graph.Names() {
		n, _ := d.Graph.Node(name)
		p.Nodes = append(p.Nodes, NodeDef{
			ID:          name,
			Kind:        Kind(n),
			TriggerRule: RuleOf(n),
			DependsOn:   d.Graph.Upstream(name),
		})
	}
	return p, nil
}

// Encode writes the pipeline as "yaml" or "json".
func (p *Pipeline) Encode(w io.Writer, format string) error {
	switch format {
	case "", "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	default:
		return fmt.Errorf("dag: unsupported format %q", format)
	}
}
