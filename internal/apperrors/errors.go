// Package apperrors defines the error taxonomy shared by controllers,
// services, and background workers, plus the mapping to HTTP status codes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	// ErrValidation covers missing or malformed required input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound means a referenced entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrAuthorization covers company/SCAC mismatches and
	// customer-not-in-company lookups.
	ErrAuthorization = errors.New("not authorized")
	// ErrInvalidTransition is returned for any status change that is not the
	// single legal successor of the current load status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrDuplicateUpload marks a re-sent filename. Callers treat it as a
	// no-op rather than surfacing it.
	ErrDuplicateUpload = errors.New("duplicate upload")
	// ErrDelivery is an email or push transport failure.
	ErrDelivery = errors.New("delivery failed")
	// ErrConflict means an optimistic version check lost a race.
	ErrConflict = errors.New("concurrent update conflict")
)

func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Authorizationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrAuthorization, fmt.Sprintf(format, args...))
}

// StatusCode maps an error to the HTTP status the handlers respond with.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes the structured {"error": message} body every handler uses.
func Respond(c *gin.Context, err error) {
	c.JSON(StatusCode(err), gin.H{"error": err.Error()})
}
