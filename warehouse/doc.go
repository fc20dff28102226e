// Package warehouse issues BigQuery load and query jobs.
//
// It also carries the warehouse assets the pipeline needs: the post-load SQL
// (queries/*.sql, rendered with the project and dataset) and the default
// schema of the performance report table (schema/report.json). Both can be
// overridden: SQL from warehouse.sql_dir and the schema from the bucket.
package warehouse
