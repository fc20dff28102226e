// Package util provides small helpers shared by the pipeline packages:
// list parsing for comma-separated variables, order-preserving
// de-duplication and identifier sanitising.
package util
