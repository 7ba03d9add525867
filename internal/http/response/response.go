// Package response defines the JSON envelope shared by every API response
// and writes it for handlers that run outside huma (middleware, recovery).
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/heyrat/heyrat-server/internal/errors"
)

// Version is the envelope format version.
const Version = 1

// Envelope wraps successful responses.
type Envelope struct {
	Version int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorEnvelope wraps error responses.
type ErrorEnvelope struct {
	Version  int    `json:"v"`
	Success  bool   `json:"success"`
	Code     string `json:"code"`
	Error    string `json:"error"`
	Details  any    `json:"details,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// Ok wraps data in a success envelope.
func Ok(data any) Envelope {
	return Envelope{Version: Version, Success: true, Data: data}
}

// FromError converts any error into an error envelope and HTTP status.
// Errors without a domain code become a generic STORAGE_ERROR.
func FromError(err error) (int, ErrorEnvelope) {
	var de *domainerrors.Error
	if !errors.As(err, &de) {
		de = domainerrors.Storage(err)
	}
	return de.HTTPStatus(), ErrorEnvelope{
		Version:  Version,
		Success:  false,
		Code:     string(de.Code),
		Error:    de.Message,
		Details:  de.Details,
		Redirect: de.Redirect,
	}
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// Success writes a 200 success envelope.
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, Ok(data), logger)
}

// Error writes the error envelope for err. Unexpected errors are logged.
func Error(w http.ResponseWriter, err error, logger *slog.Logger) {
	status, env := FromError(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", "error", err)
	}
	JSON(w, status, env, logger)
}
