package operators

import (
	"context"
	"time"

	"github.com/kbukum/spindle/dag"
	"github.com/kbukum/spindle/dv360"
	"github.com/kbukum/spindle/errors"
	"github.com/kbukum/spindle/logger"
)

// CreateReport creates a report query and writes its id to QueryIDPort.
type CreateReport struct {
	ID         string
	Definition []byte
	Reports    Reports
}

// NewCreateReport creates a CreateReport node.
func NewCreateReport(id string, definition []byte, reports Reports) *CreateReport {
	return &CreateReport{ID: id, Definition: definition, Reports: reports}
}

func (o *CreateReport) Name() string { return o.ID }
func (o *CreateReport) Kind() string { return "dv360.create_report" }

func (o *CreateReport) Run(ctx context.Context, state *dag.State) (any, error) {
	queryID, err := o.Reports.CreateQuery(ctx, o.Definition)
	if err != nil {
		return nil, err
	}
	dag.Write(state, QueryIDPort(o.ID), queryID)
	return queryID, nil
}

// RunReport runs the query read from Query and writes the report id to
// ReportIDPort.
type RunReport struct {
	ID      string
	Query   dag.Port[int64]
	Reports Reports
}

// NewRunReport creates a RunReport node.
func NewRunReport(id string, query dag.Port[int64], reports Reports) *RunReport {
	return &RunReport{ID: id, Query: query, Reports: reports}
}

func (o *RunReport) Name() string { return o.ID }
func (o *RunReport) Kind() string { return "dv360.run_report" }

func (o *RunReport) Run(ctx context.Context, state *dag.State) (any, error) {
	queryID, err := dag.Read(state, o.Query)
	if err != nil {
		return nil, errors.Internal(err)
	}
	reportID, err := o.Reports.RunQuery(ctx, queryID)
	if err != nil {
		return nil, err
	}
	dag.Write(state, ReportIDPort(o.ID), reportID)
	return reportID, nil
}

// ReportSensor pokes the report run until it is DONE and writes its
// download URL to ReportURLPort. A FAILED run ends the sensor with
// REPORT_FAILED.
type ReportSensor struct {
	ID       string
	Query    dag.Port[int64]
	Report   dag.Port[int64]
	Reports  Reports
	Interval time.Duration
	Timeout  time.Duration
}

// NewReportSensor creates a ReportSensor node.
func NewReportSensor(id string, query, report dag.Port[int64], reports Reports, interval, timeout time.Duration) *ReportSensor {
	return &ReportSensor{ID: id, Query: query, Report: report, Reports: reports, Interval: interval, Timeout: timeout}
}

func (o *ReportSensor) Name() string { return o.ID }
func (o *ReportSensor) Kind() string { return "dv360.report_sensor" }

func (o *ReportSensor) Run(ctx context.Context, state *dag.State) (any, error) {
	queryID, err := dag.Read(state, o.Query)
	if err != nil {
		return nil, errors.Internal(err)
	}
	reportID, err := dag.Read(state, o.Report)
	if err != nil {
		return nil, errors.Internal(err)
	}

	var url string
	sensor := &dag.Sensor{
		ID:       o.ID,
		Interval: o.Interval,
		Timeout:  o.Timeout,
		Poke: func(ctx context.Context, _ *dag.State) (bool, error) {
			rep, err := o.Reports.ReportStatus(ctx, queryID, reportID)
			if err != nil {
				return false, err
			}
			switch rep.State {
			case dv360.StateDone:
				url = rep.URL
				return true, nil
			case dv360.StateFailed:
				return false, errors.ReportFailed(queryID, reportID, rep.State)
			default:
				return false, nil
			}
		},
	}
	if _, err := sensor.Run(ctx, state); err != nil {
		return nil, err
	}
	if url == "" {
		return nil, errors.ExternalServiceError("dv360", errors.New(errors.ErrCodeNotFound, "finished report has no download URL"))
	}
	dag.Write(state, ReportURLPort(o.ID), url)
	logger.WithContext(ctx).Info("report ready", logger.Fields("query_id", queryID, "report_id", reportID))
	return url, nil
}

// DeleteReport deletes the query read from Query.
type DeleteReport struct {
	ID      string
	Query   dag.Port[int64]
	Reports Reports
}

// NewDeleteReport creates a DeleteReport node.
func NewDeleteReport(id string, query dag.Port[int64], reports Reports) *DeleteReport {
	return &DeleteReport{ID: id, Query: query, Reports: reports}
}

func (o *DeleteReport) Name() string { return o.ID }
func (o *DeleteReport) Kind() string { return "dv360.delete_report" }

func (o *DeleteReport) Run(ctx context.Context, state *dag.State) (any, error) {
	queryID, err := dag.Read(state, o.Query)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return queryID, o.Reports.DeleteQuery(ctx, queryID)
}
