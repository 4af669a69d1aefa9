package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/hackathon-judge/internal/types"
)

// ErrInvalidCredentials indicates invalid admin login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid username or password"
}

// ErrAdminDisabled indicates the admin surface has no credentials configured
type ErrAdminDisabled struct{}

func (e *ErrAdminDisabled) Error() string {
	return "admin access is not configured"
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Search failures such as an empty corpus fall through to 500.
func HTTPStatus(err error) int {
	var (
		validationErr  *types.ValidationError
		notFoundErr    *types.NotFoundError
		credentialsErr *ErrInvalidCredentials
		disabledErr    *ErrAdminDisabled
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &credentialsErr):
		return http.StatusUnauthorized
	case errors.As(err, &disabledErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
