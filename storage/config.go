package storage

import (
	"errors"
	"fmt"
)

// Provider constants for supported storage backends.
const (
	ProviderGCS   = "gcs"
	ProviderS3    = "s3"
	ProviderMinio = "minio"
	ProviderLocal = "local"
)

// Default configuration values.
const (
	DefaultProvider = ProviderGCS
	DefaultBasePath = "/tmp/spindle"
	DefaultRegion   = "us-east-1"
)

// Config holds storage configuration. Provider packages read the fields
// that apply to them.
type Config struct {
	// Provider selects the storage backend: "gcs", "s3", "minio" or "local".
	Provider string `mapstructure:"provider" json:"provider"`

	// Bucket is the bucket name for gcs, s3 and minio.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// BasePath is the root directory for local storage.
	BasePath string `mapstructure:"base_path" json:"base_path"`

	// CredentialsFile is a service account key for gcs. Empty uses
	// application default credentials.
	CredentialsFile string `mapstructure:"credentials_file" json:"credentials_file"`

	// Region is the region for s3 and minio.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint is a custom S3-compatible endpoint, required for minio.
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// AccessKey and SecretKey are static credentials for s3 and minio.
	AccessKey string `mapstructure:"access_key" json:"access_key"`
	SecretKey string `mapstructure:"secret_key" json:"-"`

	// UseSSL enables TLS for minio.
	UseSSL bool `mapstructure:"use_ssl" json:"use_ssl"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Provider == ProviderLocal && c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if (c.Provider == ProviderS3 || c.Provider == ProviderMinio) && c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks that the configuration is valid for the selected provider.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return errors.New("storage: base_path is required for local provider")
		}
	case ProviderGCS, ProviderS3:
		if c.Bucket == "" {
			return fmt.Errorf("storage: bucket is required for %s provider", c.Provider)
		}
	case ProviderMinio:
		var errs []error
		if c.Bucket == "" {
			errs = append(errs, errors.New("storage: bucket is required for minio provider"))
		}
		if c.Endpoint == "" {
			errs = append(errs, errors.New("storage: endpoint is required for minio provider"))
		}
		if len(errs) > 0 {
			return fmt.Errorf("storage: invalid minio config: %w", errors.Join(errs...))
		}
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	return nil
}

// GetBucket returns the bucket name.
func (c *Config) GetBucket() string { return c.Bucket }
