package dag

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"
)

func sampleDAG(t *testing.T) *DAG {
	t.Helper()
	d := New("spindle_v3", "0 22 * * *", DefaultArgs{Owner: "spindle", Retries: 3, RetryDelay: 300 * time.Second})
	end := NewMarker("end_sdf")
	end.Rule = AllDone
	if err := d.Graph.Add(NewMarker("start_sdf"), noop("upload"), end); err != nil {
		t.Fatal(err)
	}
	if err := d.Graph.FanOut("start_sdf", []string{"upload"}, "end_sdf"); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDescribe(t *testing.T) {
	p, err := Describe(sampleDAG(t))
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if p.Name != "spindle_v3" || p.Schedule != "0 22 * * *" || p.DefaultView != "graph" {
		t.Fatalf("unexpected metadata %+v", p)
	}
	if len(p.Nodes) != 3 || len(p.Levels) != 3 {
		t.Fatalf("expected 3 nodes in 3 levels, got %d/%d", len(p.Nodes), len(p.Levels))
	}
	end := p.Nodes[2]
	if end.ID != "end_sdf" || end.TriggerRule != AllDone || end.Kind != "marker" {
		t.Fatalf("unexpected end node %+v", end)
	}
	if len(end.DependsOn) != 1 || end.DependsOn[0] != "upload" {
		t.Fatalf("unexpected depends_on %v", end.DependsOn)
	}
}

func TestPipelineEncode(t *testing.T) {
	p, _ := Describe(sampleDAG(t))

	var yamlBuf bytes.Buffer
	if err := p.Encode(&yamlBuf, "yaml"); err != nil {
		t.Fatalf("yaml encode: %v", err)
	}
	var fromYAML Pipeline
	if err := yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("yaml decode: %v", err)
	}
	if fromYAML.Name != "spindle_v3" || len(fromYAML.Nodes) != 3 {
		t.Fatalf("unexpected yaml round trip %+v", fromYAML)
	}

	var jsonBuf bytes.Buffer
	if err := p.Encode(&jsonBuf, "json"); err != nil {
		t.Fatalf("json encode: %v", err)
	}
	if !json.Valid(jsonBuf.Bytes()) || !strings.Contains(jsonBuf.String(), `"trigger_rule": "all_done"`) {
		t.Fatalf("unexpected json output %s", jsonBuf.String())
	}

	if err := p.Encode(&jsonBuf, "xml"); err == nil {
		t.Fatal("expected unsupported format error")
	}
}
