// Package logger provides structured logging for spindle using zerolog.
//
// It supports JSON and console output, level configuration and scoped
// loggers carrying the DAG, run and task identifiers.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("engine").WithTask("run_report")
//	log.Info("task completed", logger.Fields("attempt", 1))
package logger
