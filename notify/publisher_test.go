package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/pubsub/pstest"
	"github.com/cloudevents/sdk-go/v2/event"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kbukum/spindle/dag"
	apperrors "github.com/kbukum/spindle/errors"
)

func sampleResult() *dag.Result {
	started := time.Date(2026, 10, 18, 22, 0, 0, 0, time.UTC)
	return &dag.Result{
		DAGID:     "spindle_v3",
		RunID:     "run-1",
		StartedAt: started,
		Duration:  90 * time.Second,
		Order:     []string{"start_sdf", "upload_sdf_1_0_A", "end_sdf"},
		NodeResults: map[string]dag.NodeResult{
			"start_sdf":        {Name: "start_sdf", Status: dag.StatusCompleted, Attempts: 1},
			"upload_sdf_1_0_A": {Name: "upload_sdf_1_0_A", Status: dag.StatusFailed, Attempts: 4, Error: stderrors.New("quota")},
			"end_sdf":          {Name: "end_sdf", Status: dag.StatusCompleted, Attempts: 1},
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleResult())
	if s.Status != StatusFailed {
		t.Errorf("expected failed, got %s", s.Status)
	}
	if !reflect.DeepEqual(s.Failed, []string{"upload_sdf_1_0_A"}) {
		t.Errorf("unexpected failed tasks %v", s.Failed)
	}
	if s.DurationMS != 90000 {
		t.Errorf("expected 90000ms, got %d", s.DurationMS)
	}
	if len(s.Tasks) != 3 || s.Tasks[1].Error != "quota" || s.Tasks[1].Attempts != 4 {
		t.Errorf("unexpected tasks %+v", s.Tasks)
	}
}

func TestNewEvent(t *testing.T) {
	r := sampleResult()
	e, err := NewEvent("spindle", r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Type() != EventType || e.ID() != "run-1" || e.Subject() != "spindle_v3" {
		t.Errorf("unexpected event attributes %s", e.String())
	}
	if !e.Time().Equal(r.StartedAt.Add(r.Duration)) {
		t.Errorf("expected finish time, got %s", e.Time())
	}
}

func TestNewEvent_MissingID(t *testing.T) {
	r := sampleResult()
	r.RunID = ""
	if _, err := NewEvent("spindle", r); err == nil {
		t.Error("expected validation error")
	}
}

func newTestPublisher(t *testing.T) (*Publisher, *pstest.Server) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pub, err := NewPublisher(context.Background(),
		Config{Enabled: true, Project: "proj", Topic: "runs"},
		option.WithGRPCConn(conn))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = pub.Close() })
	return pub, srv
}

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	pub, srv := newTestPublisher(t)
	if _, err := pub.client.CreateTopic(ctx, "runs"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := pub.Publish(ctx, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := srv.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	msg := msgs[0]
	if msg.Attributes["status"] != StatusFailed || msg.Attributes["dag_id"] != "spindle_v3" {
		t.Errorf("unexpected attributes %v", msg.Attributes)
	}

	var e event.Event
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Type() != EventType {
		t.Errorf("expected %s, got %s", EventType, e.Type())
	}
	var s RunSummary
	if err := e.DataAs(&s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.RunID != "run-1" || len(s.Tasks) != 3 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestPublisher_MissingTopic(t *testing.T) {
	pub, _ := newTestPublisher(t)
	err := pub.Publish(context.Background(), sampleResult())
	if apperrors.CodeOf(err) != apperrors.ErrCodeExternalService {
		t.Errorf("expected EXTERNAL_SERVICE_ERROR, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{}, false},
		{"complete", Config{Enabled: true, Project: "p", Topic: "t"}, false},
		{"no project", Config{Enabled: true, Topic: "t"}, true},
		{"no topic", Config{Enabled: true, Project: "p"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
