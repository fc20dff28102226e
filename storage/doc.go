// Package storage provides the object store the pipeline stages files in:
// downloaded report CSVs, extracted SDF tables and the report schema.
//
// # Backends
//
//   - storage/gcs: Google Cloud Storage, the production bucket BigQuery loads from
//   - storage/s3: Amazon S3 and S3-compatible storage
//   - storage/minio: MinIO, for self-hosted or local stacks
//   - storage/local: local filesystem storage for development and tests
//
// A backend registers itself when its package is imported:
//
//	import _ "github.com/kbukum/spindle/storage/gcs"
//
//	store, err := storage.New(storage.Config{Provider: "gcs", Bucket: "spindle-data"}, nil, log)
//
// # Configuration
//
//	storage:
//	  provider: "gcs"
//	  bucket: "spindle-data"
//	  credentials_file: "/etc/spindle/sa.json"
package storage
