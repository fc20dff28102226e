// Package errors provides the structured error type used across spindle.
// Every error carries a machine-readable code, a retryable flag and optional
// details so the engine, the CLI and run notifications report failures the
// same way.
package errors
