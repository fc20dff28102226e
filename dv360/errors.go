package dv360

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"

	apperrors "github.com/kbukum/spindle/errors"
)

// translate maps a Google API error onto the pipeline error codes.
func translate(resource string, err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests:
			return apperrors.RateLimited("dv360").WithCause(err)
		case http.StatusNotFound:
			return apperrors.NotFound(resource, "").WithCause(err)
		case http.StatusServiceUnavailable:
			return apperrors.ServiceUnavailable("dv360").WithCause(err)
		}
	}
	return apperrors.ExternalServiceError("dv360", err).WithDetail("resource", resource)
}

func isNotFound(err error) bool {
	return apperrors.CodeOf(err) == apperrors.ErrCodeNotFound
}
