package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldDAG       = "dag"
	FieldRunID     = "run_id"
	FieldTask      = "task"
	FieldAttempt   = "attempt"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldPartner   = "partner"
	FieldTable     = "table"
	FieldObject    = "object"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("done", logger.Fields("task", "run_report", "attempt", 2))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for a task or call that failed.
func ErrorFields(task string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldTask:  task,
		FieldError: err.Error(),
	}
}

// DurationFields creates fields for a timed task.
func DurationFields(task string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldTask:     task,
		FieldDuration: d.Milliseconds(),
	}
}
