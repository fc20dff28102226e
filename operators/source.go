package operators

import (
	"context"
	"io"
	"strings"

	"github.com/kbukum/spindle/storage"
	"github.com/kbukum/spindle/warehouse"
)

// attachSource points req at object. BigQuery reads gs:// objects itself;
// objects in any other backend are streamed with the job. The returned
// closer must be closed after the job finishes.
func attachSource(ctx context.Context, store ObjectStore, object string, req *warehouse.LoadRequest) (io.Closer, error) {
	uri, err := store.URL(ctx, object)
	if err != nil {
		return nil, storage.ToAppError(object, err)
	}
	if strings.HasPrefix(uri, "gs://") {
		req.SourceURIs = []string{uri}
		return io.NopCloser(nil), nil
	}
	rc, err := store.Download(ctx, object)
	if err != nil {
		return nil, storage.ToAppError(object, err)
	}
	req.Source = rc
	return rc, nil
}
