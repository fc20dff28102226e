package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned, possibly wrapped, when an object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage defines the interface for object storage operations.
type Storage interface {
	// Upload writes data from reader to the given path, replacing any
	// existing object.
	Upload(ctx context.Context, path string, reader io.Reader) error

	// Download returns a reader for the object at the given path.
	// The caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at the given path.
	// Returns nil if the object does not exist.
	Delete(ctx context.Context, path string) error

	// Exists checks whether an object exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)

	// URL returns the backend's canonical URI for the object. For GCS this is
	// gs://bucket/path, which BigQuery load jobs accept directly.
	URL(ctx context.Context, path string) (string, error)

	// List returns metadata for all objects whose path starts with prefix,
	// ordered by path.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// Closer is implemented by backends that hold a client connection.
type Closer interface {
	Close() error
}
