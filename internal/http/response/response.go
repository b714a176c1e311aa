// Package response writes JSON responses and the domain error envelope.
package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	domainerrors "github.com/bookbuddyapp/bookbuddy-server/internal/errors"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes data as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// Success writes a 200 OK JSON response.
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Error writes err as an error envelope. Domain errors keep their code and
// status; anything else is logged and reported as an internal error.
func Error(w http.ResponseWriter, err error, logger *slog.Logger) {
	var derr *domainerrors.Error
	if !errors.As(err, &derr) {
		if logger != nil {
			logger.Error("unhandled error", "error", err)
		}
		derr = domainerrors.Internal("internal server error")
	}

	JSON(w, derr.HTTPStatus(), ErrorBody{
		Code:    string(derr.Code),
		Message: derr.Message,
		Details: derr.Details,
	}, logger)
}

// TooManyRequests writes a 429 envelope.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, domainerrors.RateLimited(message), logger)
}
