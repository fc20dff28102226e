// Package gcs stores objects in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/kbukum/spindle/logger"
	"github.com/kbukum/spindle/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderGCS, func(cfg storage.Config, providerCfg any, log *logger.Logger) (storage.Storage, error) {
		c := FromStorageConfig(cfg)
		if providerCfg != nil {
			pc, ok := providerCfg.(*Config)
			if !ok {
				return nil, fmt.Errorf("gcs: expected *gcs.Config, got %T", providerCfg)
			}
			c = pc
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return NewStorage(context.Background(), c, log)
	})
}

// Config holds GCS-specific storage configuration.
type Config struct {
	// Bucket is the bucket name, without the gs:// scheme.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// CredentialsFile is a service account key. Empty uses application
	// default credentials.
	CredentialsFile string `mapstructure:"credentials_file" json:"credentials_file"`
}

// FromStorageConfig extracts the GCS settings from the core config.
func FromStorageConfig(cfg storage.Config) *Config {
	return &Config{Bucket: cfg.Bucket, CredentialsFile: cfg.CredentialsFile}
}

// Validate checks that the GCS configuration is valid.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("gcs: bucket is required")
	}
	return nil
}

// GetBucket returns the bucket name.
func (c *Config) GetBucket() string { return c.Bucket }

// Storage implements storage.Storage on a GCS bucket.
type Storage struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
	name   string
}

// NewStorage creates a GCS client for cfg.Bucket.
func NewStorage(ctx context.Context, cfg *Config, log *logger.Logger) (*Storage, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs client: %w", err)
	}
	if log != nil {
		log.Debug("gcs client created", logger.Fields("bucket", cfg.Bucket))
	}
	return &Storage{client: client, bucket: client.Bucket(cfg.Bucket), name: cfg.Bucket}, nil
}

// Upload streams reader into the object at path.
func (s *Storage) Upload(ctx context.Context, path string, reader io.Reader) error {
	w := s.bucket.Object(path).NewWriter(ctx)
	if _, err := io.Copy(w, reader); err != nil {
		_ = w.Close()
		return fmt.Errorf("storage: gcs upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: gcs upload: %w", err)
	}
	return nil
}

// Download returns a reader for the object at path.
func (s *Storage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	r, err := s.bucket.Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
		}
		return nil, fmt.Errorf("storage: gcs download: %w", err)
	}
	return r, nil
}

// Delete removes the object at path. Returns nil if it does not exist.
func (s *Storage) Delete(ctx context.Context, path string) error {
	err := s.bucket.Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("storage: gcs delete: %w", err)
	}
	return nil
}

// Exists checks whether an object exists at path.
func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.bucket.Object(path).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("storage: gcs attrs: %w", err)
	}
	return true, nil
}

// URL returns the gs:// URI BigQuery load jobs read from.
func (s *Storage) URL(_ context.Context, path string) (string, error) {
	return fmt.Sprintf("gs://%s/%s", s.name, path), nil
}

// List returns metadata for all objects whose name starts with prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	it := s.bucket.Objects(ctx, &gcs.Query{Prefix: prefix})
	var files []storage.FileInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("storage: gcs list: %w", err)
		}
		files = append(files, storage.FileInfo{
			Path:         attrs.Name,
			Size:         attrs.Size,
			LastModified: attrs.Updated,
			ContentType:  attrs.ContentType,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Close releases the GCS client.
func (s *Storage) Close() error {
	return s.client.Close()
}

var _ storage.Storage = (*Storage)(nil)
var _ storage.Closer = (*Storage)(nil)
