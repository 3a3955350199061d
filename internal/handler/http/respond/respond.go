// Package respond provides utilities for sending HTTP responses in JSON
// format, with error sanitization so internal details never reach clients.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"applytrack/internal/domain/entity"
)

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Error writes a JSON error response with the given status code and error message.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// SafeError sanitizes error messages before returning them to clients.
// Domain errors (validation, not found, invalid input) are safe to echo;
// everything else becomes a generic message with the detail logged
// server-side, masked of any credentials.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	if isSafe(err) {
		Error(w, code, err)
		return
	}

	slog.Default().Error("internal error",
		slog.Int("status_code", code),
		slog.String("error", Sanitize(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}

func isSafe(err error) bool {
	var verr *entity.ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, entity.ErrNotFound) ||
		errors.Is(err, entity.ErrInvalidInput)
}
