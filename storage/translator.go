package storage

import (
	"errors"

	apperrors "github.com/kbukum/spindle/errors"
)

// ToAppError converts a backend error to an AppError. A missing object
// becomes NOT_FOUND and anything else an external service error.
func ToAppError(path string, err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if ae, ok := apperrors.AsAppError(err); ok {
		return ae
	}
	if errors.Is(err, ErrNotFound) {
		return apperrors.NotFound("object", path).WithCause(err)
	}
	return apperrors.ExternalServiceError("storage", err).WithDetail("object", path)
}
