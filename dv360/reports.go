package dv360

import (
	"context"
	"encoding/json"
	"fmt"

	dbm "google.golang.org/api/doubleclickbidmanager/v2"
	"google.golang.org/api/option"

	apperrors "github.com/kbukum/spindle/errors"
	"github.com/kbukum/spindle/logger"
	"github.com/kbukum/spindle/resilience"
)

// Report run states returned by the Bid Manager API.
const (
	StateQueued  = "QUEUED"
	StateRunning = "RUNNING"
	StateDone    = "DONE"
	StateFailed  = "FAILED"
)

// Report is the status of one report run.
type Report struct {
	State string
	// URL is the signed download location, set once State is DONE.
	URL string
}

// ReportClient creates, runs, inspects and deletes Bid Manager queries.
type ReportClient struct {
	svc *dbm.Service
	rl  *resilience.RateLimiter
	log *logger.Logger
}

// NewReportClient creates a Bid Manager v2 client. opts are appended to the
// options derived from cfg.
func NewReportClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*ReportClient, error) {
	cfg.ApplyDefaults()
	svc, err := dbm.NewService(ctx, cfg.clientOptions(cfg.ReportsEndpoint, opts)...)
	if err != nil {
		return nil, fmt.Errorf("dv360: bid manager client: %w", err)
	}
	return &ReportClient{
		svc: svc,
		rl:  cfg.limiter("dv360-reports"),
		log: logger.Get("dv360"),
	}, nil
}

// CreateQuery creates a query from a rendered report definition and
// returns its id.
func (c *ReportClient) CreateQuery(ctx context.Context, definition []byte) (int64, error) {
	var q dbm.Query
	if err := json.Unmarshal(definition, &q); err != nil {
		return 0, apperrors.TemplateInvalid("query", err)
	}
	if err := wait(ctx, c.rl); err != nil {
		return 0, err
	}
	created, err := c.svc.Queries.Create(&q).Context(ctx).Do()
	if err != nil {
		return 0, translate("query", err)
	}
	title := ""
	if q.Metadata != nil {
		title = q.Metadata.Title
	}
	c.log.Info("query created", logger.Fields("query_id", created.QueryId, "title", title))
	return created.QueryId, nil
}

// RunQuery starts a report run for queryID and returns the report id.
func (c *ReportClient) RunQuery(ctx context.Context, queryID int64) (int64, error) {
	if err := wait(ctx, c.rl); err != nil {
		return 0, err
	}
	r, err := c.svc.Queries.Run(queryID, &dbm.RunQueryRequest{}).Context(ctx).Do()
	if err != nil {
		return 0, translate("query", err)
	}
	if r.Key == nil {
		return 0, apperrors.ExternalServiceError("dv360", fmt.Errorf("run of query %d returned no report key", queryID))
	}
	c.log.Info("query run started", logger.Fields("query_id", queryID, "report_id", r.Key.ReportId))
	return r.Key.ReportId, nil
}

// ReportStatus returns the state of a report run and, once done, its
// download URL.
func (c *ReportClient) ReportStatus(ctx context.Context, queryID, reportID int64) (Report, error) {
	if err := wait(ctx, c.rl); err != nil {
		return Report{}, err
	}
	r, err := c.svc.Queries.Reports.Get(queryID, reportID).Context(ctx).Do()
	if err != nil {
		return Report{}, translate("report", err)
	}
	var rep Report
	if r.Metadata != nil {
		rep.URL = r.Metadata.GoogleCloudStoragePath
		if r.Metadata.Status != nil {
			rep.State = r.Metadata.Status.State
		}
	}
	return rep, nil
}

// DeleteQuery deletes a query and its reports. Deleting a query that no
// longer exists succeeds, so a retried delete is harmless.
func (c *ReportClient) DeleteQuery(ctx context.Context, queryID int64) error {
	if err := wait(ctx, c.rl); err != nil {
		return err
	}
	err := translate("query", c.svc.Queries.Delete(queryID).Context(ctx).Do())
	if isNotFound(err) {
		c.log.Warn("query already deleted", logger.Fields("query_id", queryID))
		return nil
	}
	if err != nil {
		return err
	}
	c.log.Info("query deleted", logger.Fields("query_id", queryID))
	return nil
}
