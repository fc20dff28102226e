package operators

import (
	"context"

	"github.com/kbukum/spindle/dag"
	"github.com/kbukum/spindle/errors"
	"github.com/kbukum/spindle/logger"
	"github.com/kbukum/spindle/storage"
)

// DownloadReport copies the finished report from its download URL into the
// object store.
type DownloadReport struct {
	ID      string
	URL     dag.Port[string]
	Fetcher Fetcher
	Store   ObjectStore
	Object  string
}

// NewDownloadReport creates a DownloadReport node.
func NewDownloadReport(id string, url dag.Port[string], fetcher Fetcher, store ObjectStore, object string) *DownloadReport {
	return &DownloadReport{ID: id, URL: url, Fetcher: fetcher, Store: store, Object: object}
}

func (o *DownloadReport) Name() string { return o.ID }
func (o *DownloadReport) Kind() string { return "dv360.download_report" }

func (o *DownloadReport) Run(ctx context.Context, state *dag.State) (any, error) {
	url, err := dag.Read(state, o.URL)
	if err != nil {
		return nil, errors.Internal(err)
	}
	body, err := o.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if err := o.Store.Upload(ctx, o.Object, body); err != nil {
		return nil, storage.ToAppError(o.Object, err)
	}
	uri, err := o.Store.URL(ctx, o.Object)
	if err != nil {
		return nil, storage.ToAppError(o.Object, err)
	}
	logger.WithContext(ctx).Info("report stored", logger.Fields(logger.FieldObject, uri))
	return uri, nil
}
