package server

import (
	"net/http"

	"github.com/teranos/fuzzykea/errors"
)

// ErrReferenceUnavailable is returned while no dataset is loaded
var ErrReferenceUnavailable = errors.Mark(errors.New("reference dataset not loaded"), errors.ErrServiceUnavailable)

// statusFor maps error categories onto HTTP status codes
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.IsInvalidConfigError(err), errors.IsInvalidRequestError(err):
		return http.StatusBadRequest
	case errors.IsNotFoundError(err):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
