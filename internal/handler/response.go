package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rideid/internal/repository"
	"rideid/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidPhoneFormat),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidSubjectID),
		errors.Is(err, service.ErrInvalidName):
		return http.StatusBadRequest

	// Session state errors - the caller must restart verification
	case errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, service.ErrTooManyAttempts):
		return http.StatusGone

	// Conflict errors
	case errors.Is(err, service.ErrDriverAlreadyProvisioned),
		errors.Is(err, service.ErrPhoneAlreadyRegistered),
		errors.Is(err, service.ErrAlreadyRegistered):
		return http.StatusConflict

	// Linking errors
	case errors.Is(err, service.ErrPlaceholderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDriverLinkIncomplete):
		return http.StatusInternalServerError

	// Authorization gating - user-visible, carry contact-support messages
	case errors.Is(err, service.ErrAccountBlocked),
		errors.Is(err, service.ErrAccountInactive),
		errors.Is(err, service.ErrAccountNotVerified),
		errors.Is(err, service.ErrAccountDataMissing):
		return http.StatusForbidden

	// Rate limiting
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests

	// Provider transient errors
	case errors.Is(err, service.ErrProviderUnavailable),
		errors.Is(err, service.ErrChallengeSetupFailed):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
