package warehouse

import (
	"google.golang.org/api/option"

	"github.com/kbukum/spindle/errors"
)

// Config configures the BigQuery client.
type Config struct {
	// Project is the project jobs run in. The pipeline sets it from the
	// cloud_project_id variable when empty.
	Project string `mapstructure:"project"`
	// Location is the job location, e.g. "US" or "EU". Empty lets BigQuery
	// infer it.
	Location string `mapstructure:"location"`
	// CredentialsFile is a service account key. Empty uses application
	// default credentials.
	CredentialsFile string `mapstructure:"credentials_file"`
	// Endpoint overrides the API base URL.
	Endpoint string `mapstructure:"endpoint"`
	// SQLDir overrides the embedded post-load SQL.
	SQLDir string `mapstructure:"sql_dir"`
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Project == "" {
		return errors.ConfigInvalid("warehouse.project", "project is required")
	}
	return nil
}

func (c *Config) clientOptions(extra []option.ClientOption) []option.ClientOption {
	var opts []option.ClientOption
	if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}
	return append(opts, extra...)
}
