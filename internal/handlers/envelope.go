package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/repositories"
)

// envelope is the wire shape of every successful response.
type envelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// errorBody is the wire shape of every failed response.
type errorBody struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// apiError carries a fixed HTTP status through handler control flow.
type apiError struct {
	status  int
	message string
	errs    []string
}

func (e apiError) Error() string { return e.message }

func badRequest(message string, errs ...string) apiError {
	return apiError{status: http.StatusBadRequest, message: message, errs: errs}
}

func unauthorized(message string) apiError {
	return apiError{status: http.StatusUnauthorized, message: message}
}

func notFound(message string) apiError {
	return apiError{status: http.StatusNotFound, message: message}
}

func conflict(message string) apiError {
	return apiError{status: http.StatusConflict, message: message}
}

func internalError(message string) apiError {
	return apiError{status: http.StatusInternalServerError, message: message}
}

// respond writes a success envelope. The HTTP status mirrors statusCode.
func respond(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	writeJSON(ctx, w, status, envelope{
		Success:    true,
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

// respondError is the single boundary translating failures into the error
// envelope. Handlers return apiError values for explicit statuses; anything
// else maps by error identity, defaulting to 500.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	var apiErr apiError
	switch {
	case errors.As(err, &apiErr):
	case errors.Is(err, repositories.ErrNotFound):
		apiErr = notFound("Resource not found")
	case errors.Is(err, repositories.ErrConflict):
		apiErr = conflict("Resource already exists")
	case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrTokenInvalid), errors.Is(err, auth.ErrTokenRevoked):
		apiErr = unauthorized("Invalid or expired token")
	default:
		apiErr = internalError("Internal server error")
	}

	logger := logging.FromContext(ctx)
	if apiErr.status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", apiErr.status, "error", err)
	} else {
		logger.Warn("request rejected", "status", apiErr.status, "error", err)
	}

	errs := apiErr.errs
	if errs == nil {
		errs = []string{}
	}

	writeJSON(ctx, w, apiErr.status, errorBody{
		Success: false,
		Message: apiErr.message,
		Errors:  errs,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}
