package errors

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an error to the HTTP status code the API should return.
// Input errors surface as 400s; everything unrecognized is a 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedAudio), errors.Is(err, ErrBatchMismatch):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrNoProviderAvailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
