package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noesis-forge/noesis/pkg/llm"
	"github.com/noesis-forge/noesis/pkg/services"
)

// Stable machine-readable codes for the REST error envelope.
const (
	codeValidationError  = "VALIDATION_ERROR"
	codeNotFound         = "NOT_FOUND"
	codeConflict         = "CONFLICT"
	codeDatabaseError    = "DATABASE_ERROR"
	codeExternalAPIError = "EXTERNAL_API_ERROR"
	codeInternalError    = "INTERNAL_ERROR"
)

// ErrorBody is the envelope for every non-2xx JSON response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the stable code, a human-readable message, and
// optional structured details such as the failing field.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeError(c *gin.Context, status int, code, message string, details map[string]any) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: ErrorDetail{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// mapServiceError translates service-layer errors into the REST envelope.
// Conflicts cover every state-machine rejection: cancelling a closed
// session, double-streaming, and resuming at the wrong moment.
func mapServiceError(c *gin.Context, err error) {
	var validErr *services.ValidationError
	var pgErr *pgconn.PgError
	var connErr *pgconn.ConnectError
	var apiErr *llm.APIError

	switch {
	case errors.As(err, &validErr):
		writeError(c, http.StatusBadRequest, codeValidationError, validErr.Message,
			map[string]any{"field": validErr.Field})
	case errors.Is(err, services.ErrNotFound):
		writeError(c, http.StatusNotFound, codeNotFound, "session not found", nil)
	case errors.Is(err, services.ErrAlreadyExists):
		writeError(c, http.StatusConflict, codeConflict, "session already exists", nil)
	case errors.Is(err, services.ErrNotCancellable):
		writeError(c, http.StatusConflict, codeConflict, "session is not in a cancellable state", nil)
	case errors.Is(err, services.ErrSessionBusy):
		writeError(c, http.StatusConflict, codeConflict, "a turn is already in progress for this session", nil)
	case errors.Is(err, services.ErrSessionClosed):
		writeError(c, http.StatusConflict, codeConflict, "session is closed", nil)
	case errors.Is(err, services.ErrAwaitingInput):
		writeError(c, http.StatusConflict, codeConflict, "session is awaiting user input", nil)
	case errors.Is(err, services.ErrNotAwaitingInput):
		writeError(c, http.StatusConflict, codeConflict, "session is not awaiting user input", nil)
	case errors.As(err, &pgErr), errors.As(err, &connErr):
		slog.Error("Database error at the API boundary", "error", err)
		writeError(c, http.StatusServiceUnavailable, codeDatabaseError, "database unavailable", nil)
	case errors.As(err, &apiErr):
		writeError(c, http.StatusServiceUnavailable, codeExternalAPIError, "language model unavailable",
			map[string]any{"category": string(apiErr.Category)})
	default:
		slog.Error("Unexpected service error", "error", err)
		writeError(c, http.StatusInternalServerError, codeInternalError, "internal server error", nil)
	}
}
