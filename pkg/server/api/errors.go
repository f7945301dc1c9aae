package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/shemshallah/quantum-foam-rng/pkg/entropy"
	"github.com/shemshallah/quantum-foam-rng/pkg/jobs"
)

// ErrorResponse represents a standard JSON error response.
// Used consistently across all API endpoints for error responses.
//
// Example:
//
//	{
//	  "error": "Not Found",
//	  "code": "JOB_NOT_FOUND",
//	  "message": "job 3f2a... not found"
//	}
type ErrorResponse struct {
	Error   string `json:"error"`             // Short error type (e.g., "Not Found", "Internal Server Error")
	Code    string `json:"code,omitempty"`    // Machine-readable error code (e.g., "JOB_NOT_FOUND", "VALIDATION_ERROR")
	Message string `json:"message,omitempty"` // Detailed error message (optional)
}

// WriteError writes a standard JSON error response to the client.
// It determines the HTTP status code based on error type:
//   - *jobs.ValidationError → 400 Bad Request
//   - *jobs.NotFoundError → 404 Not Found
//   - *entropy.MeasurementProviderError → 502 Bad Gateway
//   - *jobs.JobTimeoutError → 504 Gateway Timeout
//   - All other errors (including *entropy.InternalError) → 500
//
// It also logs the error with structured logging for observability.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var statusCode int
	var errorType string
	var errorCode string

	var validationErr *jobs.ValidationError
	var notFoundErr *jobs.NotFoundError
	var providerErr *entropy.MeasurementProviderError
	var timeoutErr *jobs.JobTimeoutError

	switch {
	case errors.As(err, &validationErr):
		statusCode = http.StatusBadRequest
		errorType = "Bad Request"
		errorCode = "VALIDATION_ERROR"
	case errors.As(err, &notFoundErr):
		statusCode = http.StatusNotFound
		errorType = "Not Found"
		errorCode = "JOB_NOT_FOUND"
	case errors.As(err, &providerErr):
		statusCode = http.StatusBadGateway
		errorType = "Bad Gateway"
		errorCode = "PROVIDER_ERROR"
	case errors.As(err, &timeoutErr):
		statusCode = http.StatusGatewayTimeout
		errorType = "Gateway Timeout"
		errorCode = "JOB_TIMEOUT"
	default:
		statusCode = http.StatusInternalServerError
		errorType = "Internal Server Error"
		errorCode = "INTERNAL_ERROR"
	}

	logEvent := log.Error().
		Str("component", "api").
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", statusCode).
		Str("error_code", errorCode).
		Err(err)

	if statusCode == http.StatusNotFound {
		logEvent.Msg("Resource not found")
	} else if statusCode >= 500 {
		logEvent.Msg("Internal server error")
	} else {
		logEvent.Msg("Client error")
	}

	WriteJSONError(w, statusCode, errorType, errorCode, err.Error())
}

// WriteJSONError writes a custom JSON error response with a specific status code.
// Use this when you need fine-grained control over the error response.
//
// Example:
//
//	WriteJSONError(w, http.StatusBadRequest, "Bad Request", "INVALID_ANGLE", "angle must be a number")
func WriteJSONError(w http.ResponseWriter, statusCode int, errorType, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   errorType,
		Code:    errorCode,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode error response")
	}
}

// WriteJSON writes a JSON response to the client.
// Use this for successful API responses.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode JSON response")
	}
}
