package operators

import (
	"context"
	"io"

	"github.com/kbukum/spindle/dag"
	"github.com/kbukum/spindle/dv360"
	"github.com/kbukum/spindle/warehouse"
)

// Reports creates, runs, inspects and deletes DV360 report queries.
type Reports interface {
	CreateQuery(ctx context.Context, definition []byte) (int64, error)
	RunQuery(ctx context.Context, queryID int64) (int64, error)
	ReportStatus(ctx context.Context, queryID, reportID int64) (dv360.Report, error)
	DeleteQuery(ctx context.Context, queryID int64) error
}

// Fetcher downloads a report file from its URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// ObjectStore stages files for the warehouse.
type ObjectStore interface {
	Upload(ctx context.Context, path string, r io.Reader) error
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	URL(ctx context.Context, path string) (string, error)
}

// SDFDownloader downloads Structured Data Files for an advertiser group.
type SDFDownloader interface {
	DownloadSDF(ctx context.Context, req dv360.SDFRequest, fn func(dv360.SDFFile) error) error
}

// Warehouse runs BigQuery jobs.
type Warehouse interface {
	LoadCSV(ctx context.Context, req warehouse.LoadRequest) error
	Query(ctx context.Context, req warehouse.QueryRequest) error
}

// VariableWriter stores pipeline variables.
type VariableWriter interface {
	Set(ctx context.Context, name, value string) error
}

// QueryIDPort is the query id written by a CreateReport task.
func QueryIDPort(task string) dag.Port[int64] { return dag.NewPort[int64](task, "query_id") }

// ReportIDPort is the report id written by a RunReport task.
func ReportIDPort(task string) dag.Port[int64] { return dag.NewPort[int64](task, "report_id") }

// ReportURLPort is the download URL written by a ReportSensor task.
func ReportURLPort(task string) dag.Port[string] { return dag.NewPort[string](task, "report_url") }
