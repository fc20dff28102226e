package operators

import (
	"context"
	"errors"
	"io"

	"github.com/kbukum/spindle/dag"
	"github.com/kbukum/spindle/logger"
	"github.com/kbukum/spindle/storage"
	"github.com/kbukum/spindle/warehouse"
)

// GCSToBigQuery loads a staged CSV object into a table. When SchemaObject
// is set the JSON schema is read from the store. Request.Schema is used when
// SchemaObject is empty or names a missing object.
type GCSToBigQuery struct {
	ID           string
	Object       string
	SchemaObject string
	Request      warehouse.LoadRequest
	Store        ObjectStore
	Warehouse    Warehouse
}

func (o *GCSToBigQuery) Name() string { return o.ID }
func (o *GCSToBigQuery) Kind() string { return "bigquery.load_csv" }

func (o *GCSToBigQuery) Run(ctx context.Context, _ *dag.State) (any, error) {
	req := o.Request
	if o.SchemaObject != "" {
		schema, err := o.schema(ctx)
		switch {
		case errors.Is(err, storage.ErrNotFound) && len(req.Schema) > 0:
			logger.WithContext(ctx).Warn("schema object not found, using built-in schema",
				logger.Fields(logger.FieldObject, o.SchemaObject))
		case err != nil:
			return nil, err
		default:
			req.Schema = schema
		}
	}
	src, err := attachSource(ctx, o.Store, o.Object, &req)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if err := o.Warehouse.LoadCSV(ctx, req); err != nil {
		return nil, err
	}
	logger.WithContext(ctx).Info("table loaded", logger.Fields(
		logger.FieldTable, req.Table.String(),
		logger.FieldObject, o.Object,
	))
	return req.Table.String(), nil
}

func (o *GCSToBigQuery) schema(ctx context.Context) ([]byte, error) {
	rc, err := o.Store.Download(ctx, o.SchemaObject)
	if err != nil {
		return nil, storage.ToAppError(o.SchemaObject, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, storage.ToAppError(o.SchemaObject, err)
	}
	if _, err := warehouse.ParseSchema(data); err != nil {
		return nil, err
	}
	return data, nil
}

// BigQueryQuery runs a standard SQL job.
type BigQueryQuery struct {
	ID        string
	Request   warehouse.QueryRequest
	Warehouse Warehouse
}

func (o *BigQueryQuery) Name() string { return o.ID }
func (o *BigQueryQuery) Kind() string { return "bigquery.query" }

func (o *BigQueryQuery) Run(ctx context.Context, _ *dag.State) (any, error) {
	if err := o.Warehouse.Query(ctx, o.Request); err != nil {
		return nil, err
	}
	if o.Request.Destination != nil {
		return o.Request.Destination.String(), nil
	}
	return nil, nil
}
