// Package minio stores objects in a MinIO bucket.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kbukum/spindle/logger"
	"github.com/kbukum/spindle/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderMinio, func(cfg storage.Config, providerCfg any, log *logger.Logger) (storage.Storage, error) {
		c := FromStorageConfig(cfg)
		if providerCfg != nil {
			pc, ok := providerCfg.(*Config)
			if !ok {
				return nil, fmt.Errorf("minio: expected *minio.Config, got %T", providerCfg)
			}
			c = pc
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return NewStorage(context.Background(), c, log)
	})
}

// Config holds MinIO-specific storage configuration.
type Config struct {
	Endpoint  string `mapstructure:"endpoint" json:"endpoint"`
	Bucket    string `mapstructure:"bucket" json:"bucket"`
	Region    string `mapstructure:"region" json:"region"`
	AccessKey string `mapstructure:"access_key" json:"access_key"`
	SecretKey string `mapstructure:"secret_key" json:"-"`
	UseSSL    bool   `mapstructure:"use_ssl" json:"use_ssl"`
}

// FromStorageConfig extracts the MinIO settings from the core config.
func FromStorageConfig(cfg storage.Config) *Config {
	return &Config{
		Endpoint:  cfg.Endpoint,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
	}
}

// Validate checks that the MinIO configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Endpoint == "" {
		errs = append(errs, errors.New("minio: endpoint is required"))
	}
	if c.Bucket == "" {
		errs = append(errs, errors.New("minio: bucket is required"))
	}
	if strings.Contains(c.Endpoint, "://") {
		errs = append(errs, errors.New("minio: endpoint must be host:port without a scheme"))
	}
	return errors.Join(errs...)
}

// GetBucket returns the bucket name.
func (c *Config) GetBucket() string { return c.Bucket }

// Storage implements storage.Storage on a MinIO bucket.
type Storage struct {
	client *minio.Client
	cfg    *Config
}

// NewStorage connects to MinIO and creates the bucket if it is missing.
func NewStorage(ctx context.Context, cfg *Config, log *logger.Logger) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: minio client: %w", err)
	}
	s := &Storage{client: client, cfg: cfg}
	if err := s.ensureBucket(ctx, log); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) ensureBucket(ctx context.Context, log *logger.Logger) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("storage: minio bucket check: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return fmt.Errorf("storage: minio make bucket: %w", err)
	}
	if log != nil {
		log.Info("created bucket", logger.Fields("bucket", s.cfg.Bucket))
	}
	return nil
}

// Upload streams reader into the object at path.
func (s *Storage) Upload(ctx context.Context, path string, reader io.Reader) error {
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, path, reader, -1, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("storage: minio upload: %w", err)
	}
	return nil
}

// Download returns a reader for the object at path.
func (s *Storage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("storage: minio download: %w", err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller reads.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
		}
		return nil, fmt.Errorf("storage: minio download: %w", err)
	}
	return obj, nil
}

// Delete removes the object at path. MinIO reports success for missing keys.
func (s *Storage) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("storage: minio delete: %w", err)
	}
	return nil
}

// Exists checks whether an object exists at path.
func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.cfg.Bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("storage: minio stat: %w", err)
	}
	return true, nil
}

// URL returns an s3:// URI for the object.
func (s *Storage) URL(_ context.Context, path string) (string, error) {
	return fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, path), nil
}

// List returns metadata for all objects whose key starts with prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	var files []storage.FileInfo
	for obj := range s.client.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("storage: minio list: %w", obj.Err)
		}
		files = append(files, storage.FileInfo{
			Path:         obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ContentType:  obj.ContentType,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey"
}

var _ storage.Storage = (*Storage)(nil)
