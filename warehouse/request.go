package warehouse

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/spindle/errors"
)

// Write and create dispositions, as named by the BigQuery API.
const (
	WriteTruncate  = "WRITE_TRUNCATE"
	WriteAppend    = "WRITE_APPEND"
	WriteEmpty     = "WRITE_EMPTY"
	CreateIfNeeded = "CREATE_IF_NEEDED"
	CreateNever    = "CREATE_NEVER"
)

// TableRef names a table.
type TableRef struct {
	Project string
	Dataset string
	Table   string
}

// String returns project.dataset.table, or dataset.table without a project.
func (t TableRef) String() string {
	if t.Project == "" {
		return t.Dataset + "." + t.Table
	}
	return t.Project + "." + t.Dataset + "." + t.Table
}

// ParseTableRef parses "dataset.table" or "project.dataset.table". A
// missing project is taken from defaultProject.
func ParseTableRef(s, defaultProject string) (TableRef, error) {
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if p == "" {
			return TableRef{}, errors.InvalidInput("table", fmt.Sprintf("malformed table reference %q", s))
		}
	}
	switch len(parts) {
	case 2:
		return TableRef{Project: defaultProject, Dataset: parts[0], Table: parts[1]}, nil
	case 3:
		return TableRef{Project: parts[0], Dataset: parts[1], Table: parts[2]}, nil
	default:
		return TableRef{}, errors.InvalidInput("table", fmt.Sprintf("malformed table reference %q", s))
	}
}

// LoadRequest describes a CSV load job. Exactly one of SourceURIs and
// Source must be set.
type LoadRequest struct {
	Table TableRef
	// SourceURIs are gs:// URIs BigQuery reads directly.
	SourceURIs []string
	// Source is uploaded with the job when the file is not in GCS.
	Source io.Reader

	SkipLeadingRows     int64
	MaxBadRecords       int64
	AllowQuotedNewlines bool
	// Schema is a BigQuery JSON schema. Ignored when Autodetect is set.
	Schema     []byte
	Autodetect bool

	WriteDisposition  string
	CreateDisposition string
}

// Validate checks the request before a job is submitted.
func (r *LoadRequest) Validate() error {
	if r.Table.Dataset == "" || r.Table.Table == "" {
		return errors.InvalidInput("table", "dataset and table are required")
	}
	if (len(r.SourceURIs) == 0) == (r.Source == nil) {
		return errors.InvalidInput("source", "exactly one of source URIs and source reader is required")
	}
	for _, uri := range r.SourceURIs {
		if !strings.HasPrefix(uri, "gs://") {
			return errors.InvalidInput("source", fmt.Sprintf("%q is not a gs:// URI", uri))
		}
	}
	if !r.Autodetect && len(r.Schema) == 0 {
		return errors.InvalidInput("schema", "a schema is required unless autodetect is set")
	}
	if r.SkipLeadingRows < 0 || r.MaxBadRecords < 0 {
		return errors.InvalidInput("load", "skip leading rows and max bad records must be >= 0")
	}
	return validDispositions(r.WriteDisposition, r.CreateDisposition)
}

// Partition configures day partitioning of a query destination.
type Partition struct {
	// Field is the DATE or TIMESTAMP column. Empty partitions by ingestion time.
	Field string
	// Expiration drops partitions older than this. Zero keeps them.
	Expiration time.Duration
}

// QueryRequest describes a standard SQL query job.
type QueryRequest struct {
	SQL string
	// Destination receives the results. Nil for DDL and scripts.
	Destination *TableRef

	WriteDisposition  string
	CreateDisposition string
	AllowLargeResults bool
	Partition         *Partition
}

// Validate checks the request before a job is submitted.
func (r *QueryRequest) Validate() error {
	if strings.TrimSpace(r.SQL) == "" {
		return errors.InvalidInput("sql", "query text is required")
	}
	if r.Destination == nil && (r.Partition != nil || r.WriteDisposition != "" || r.CreateDisposition != "") {
		return errors.InvalidInput("destination", "dispositions and partitioning need a destination table")
	}
	return validDispositions(r.WriteDisposition, r.CreateDisposition)
}

func validDispositions(write, create string) error {
	switch write {
	case "", WriteTruncate, WriteAppend, WriteEmpty:
	default:
		return errors.InvalidInput("write_disposition", fmt.Sprintf("unknown write disposition %q", write))
	}
	switch create {
	case "", CreateIfNeeded, CreateNever:
	default:
		return errors.InvalidInput("create_disposition", fmt.Sprintf("unknown create disposition %q", create))
	}
	return nil
}
