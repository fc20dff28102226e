package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/cloudevents/sdk-go/v2/event"
	"google.golang.org/api/option"

	"github.com/kbukum/spindle/dag"
	"github.com/kbukum/spindle/errors"
	"github.com/kbukum/spindle/logger"
)

// EventType is the CloudEvents type of a finished run.
const EventType = "com.spindle.dagrun.finished"

// Run outcomes carried in the "status" message attribute.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// TaskSummary is the outcome of one task.
type TaskSummary struct {
	Task     string `json:"task"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// RunSummary is the data of a run event.
type RunSummary struct {
	DAGID      string        `json:"dag_id"`
	RunID      string        `json:"run_id"`
	Status     string        `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	DurationMS int64         `json:"duration_ms"`
	Failed     []string      `json:"failed_tasks,omitempty"`
	Tasks      []TaskSummary `json:"tasks"`
}

// Summarize converts a run result into event data. Tasks are listed in the
// order they finished.
func Summarize(r *dag.Result) RunSummary {
	s := RunSummary{
		DAGID:      r.DAGID,
		RunID:      r.RunID,
		Status:     StatusSucceeded,
		StartedAt:  r.StartedAt.UTC(),
		DurationMS: r.Duration.Milliseconds(),
		Failed:     r.FailedNodes(),
		Tasks:      make([]TaskSummary, 0, len(r.Order)),
	}
	if r.Failed() {
		s.Status = StatusFailed
	}
	for _, name := range r.Order {
		nr := r.NodeResults[name]
		ts := TaskSummary{Task: name, Status: string(nr.Status), Attempts: nr.Attempts}
		if nr.Error != nil {
			ts.Error = nr.Error.Error()
		}
		s.Tasks = append(s.Tasks, ts)
	}
	return s
}

// NewEvent builds the structured CloudEvent for a run.
func NewEvent(source string, r *dag.Result) (event.Event, error) {
	e := event.New()
	e.SetID(r.RunID)
	e.SetSource(source)
	e.SetType(EventType)
	e.SetSubject(r.DAGID)
	e.SetTime(r.StartedAt.Add(r.Duration))
	if err := e.SetData(event.ApplicationJSON, Summarize(r)); err != nil {
		return e, fmt.Errorf("notify: set event data: %w", err)
	}
	if err := e.Validate(); err != nil {
		return e, fmt.Errorf("notify: invalid event: %w", err)
	}
	return e, nil
}

// Publisher sends run events to a Pub/Sub topic.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	source string
	log    *logger.Logger
}

// NewPublisher creates a Pub/Sub client for cfg.Topic. opts are appended
// to the options derived from cfg.
func NewPublisher(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Publisher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := pubsub.NewClient(ctx, cfg.Project, cfg.clientOptions(opts)...)
	if err != nil {
		return nil, fmt.Errorf("notify: pubsub client: %w", err)
	}
	return &Publisher{
		client: client,
		topic:  client.Topic(cfg.Topic),
		source: cfg.Source,
		log:    logger.Get("notify"),
	}, nil
}

// Publish sends the run event and waits for the server to acknowledge it.
func (p *Publisher) Publish(ctx context.Context, r *dag.Result) error {
	e, err := NewEvent(p.source, r)
	if err != nil {
		return errors.Internal(err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Internal(err)
	}

	status := StatusSucceeded
	if r.Failed() {
		status = StatusFailed
	}
	res := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"content-type": "application/cloudevents+json",
			"dag_id":       r.DAGID,
			"run_id":       r.RunID,
			"status":       status,
		},
	})
	id, err := res.Get(ctx)
	if err != nil {
		return errors.ExternalServiceError("pubsub", err).WithDetail("topic", p.topic.ID())
	}
	p.log.Info("run event published", logger.Fields(
		logger.FieldRunID, r.RunID,
		logger.FieldStatus, status,
		"message_id", id,
	))
	return nil
}

// Close flushes pending messages and closes the client.
func (p *Publisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
