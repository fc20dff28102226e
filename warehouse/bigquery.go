package warehouse

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"

	"github.com/kbukum/spindle/errors"
	"github.com/kbukum/spindle/logger"
)

// BigQuery runs load and query jobs.
type BigQuery struct {
	client   *bigquery.Client
	location string
	log      *logger.Logger
}

// NewBigQuery creates a BigQuery client for cfg.Project. opts are appended
// to the options derived from cfg.
func NewBigQuery(ctx context.Context, cfg Config, opts ...option.ClientOption) (*BigQuery, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := bigquery.NewClient(ctx, cfg.Project, cfg.clientOptions(opts)...)
	if err != nil {
		return nil, errors.ExternalServiceError("bigquery", err)
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}
	return &BigQuery{client: client, location: cfg.Location, log: logger.Get("warehouse")}, nil
}

// LoadCSV runs a CSV load job and waits for it to finish.
func (b *BigQuery) LoadCSV(ctx context.Context, req LoadRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	src, err := loadSource(req)
	if err != nil {
		return err
	}

	loader := b.table(req.Table).LoaderFrom(src)
	loader.WriteDisposition = bigquery.TableWriteDisposition(req.WriteDisposition)
	loader.CreateDisposition = bigquery.TableCreateDisposition(req.CreateDisposition)

	start := time.Now()
	if err := b.runJob(ctx, req.Table.String(), loader.Run); err != nil {
		return err
	}
	b.log.Info("load job finished", logger.Fields(
		logger.FieldTable, req.Table.String(),
		"write_disposition", req.WriteDisposition,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return nil
}

// Query runs a standard SQL query job and waits for it to finish.
func (b *BigQuery) Query(ctx context.Context, req QueryRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	q := b.client.Query(req.SQL)
	q.UseLegacySQL = false
	q.AllowLargeResults = req.AllowLargeResults
	target := "script"
	if req.Destination != nil {
		q.Dst = b.table(*req.Destination)
		q.WriteDisposition = bigquery.TableWriteDisposition(req.WriteDisposition)
		q.CreateDisposition = bigquery.TableCreateDisposition(req.CreateDisposition)
		q.TimePartitioning = timePartitioning(req.Partition)
		target = req.Destination.String()
	}

	start := time.Now()
	if err := b.runJob(ctx, target, q.Run); err != nil {
		return err
	}
	b.log.Info("query job finished", logger.Fields(
		logger.FieldTable, target,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return nil
}

// Close releases the client.
func (b *BigQuery) Close() error {
	return b.client.Close()
}

func (b *BigQuery) table(ref TableRef) *bigquery.Table {
	project := ref.Project
	if project == "" {
		project = b.client.Project()
	}
	return b.client.DatasetInProject(project, ref.Dataset).Table(ref.Table)
}

// runJob submits a job and waits for it. Submission failures are external
// service errors; a job that finishes with an error is a load failure.
func (b *BigQuery) runJob(ctx context.Context, target string, run func(context.Context) (*bigquery.Job, error)) error {
	job, err := run(ctx)
	if err != nil {
		return errors.ExternalServiceError("bigquery", err).WithDetail(logger.FieldTable, target)
	}
	b.log.Debug("job submitted", logger.Fields("job_id", job.ID(), logger.FieldTable, target))

	status, err := job.Wait(ctx)
	if err != nil {
		return errors.ExternalServiceError("bigquery", err).WithDetail("job_id", job.ID())
	}
	if err := status.Err(); err != nil {
		return errors.LoadFailed(target, err).WithDetail("job_id", job.ID())
	}
	return nil
}

func loadSource(req LoadRequest) (bigquery.LoadSource, error) {
	fc, err := fileConfig(req)
	if err != nil {
		return nil, err
	}
	if len(req.SourceURIs) > 0 {
		ref := bigquery.NewGCSReference(req.SourceURIs...)
		ref.FileConfig = fc
		return ref, nil
	}
	src := bigquery.NewReaderSource(req.Source)
	src.FileConfig = fc
	return src, nil
}

func fileConfig(req LoadRequest) (bigquery.FileConfig, error) {
	fc := bigquery.FileConfig{
		SourceFormat:  bigquery.CSV,
		MaxBadRecords: req.MaxBadRecords,
		AutoDetect:    req.Autodetect,
		CSVOptions: bigquery.CSVOptions{
			SkipLeadingRows:     req.SkipLeadingRows,
			AllowQuotedNewlines: req.AllowQuotedNewlines,
		},
	}
	if !req.Autodetect {
		schema, err := ParseSchema(req.Schema)
		if err != nil {
			return fc, err
		}
		fc.Schema = schema
	}
	return fc, nil
}

func timePartitioning(p *Partition) *bigquery.TimePartitioning {
	if p == nil {
		return nil
	}
	return &bigquery.TimePartitioning{
		Type:       bigquery.DayPartitioningType,
		Field:      p.Field,
		Expiration: p.Expiration,
	}
}

// ParseSchema decodes a BigQuery JSON schema.
func ParseSchema(data []byte) (bigquery.Schema, error) {
	schema, err := bigquery.SchemaFromJSON(data)
	if err != nil {
		return nil, errors.InvalidInput("schema", fmt.Sprintf("invalid BigQuery schema: %v", err))
	}
	if len(schema) == 0 {
		return nil, errors.InvalidInput("schema", "schema has no fields")
	}
	return schema, nil
}
