// Package response writes the JSON envelope shared by every handler.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/chris/trade-sphere/pkg/api"
	"github.com/chris/trade-sphere/pkg/models"
)

// StatusFor maps a taxonomy code to its HTTP status.
func StatusFor(code models.Code) int {
	switch code {
	case models.CodeUnauthorized:
		return http.StatusForbidden
	case models.CodeNotFound:
		return http.StatusNotFound
	case models.CodeInvalidState:
		return http.StatusConflict
	case models.CodeUnsupportedToken, models.CodeInvalidParty, models.CodeTransferFailed:
		return http.StatusUnprocessableEntity
	case models.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// JSON writes a successful envelope carrying value.
func JSON(w http.ResponseWriter, status int, value interface{}) {
	write(w, status, api.Envelope{Ok: true, Value: value})
}

// Error writes a failed envelope for err.
func Error(w http.ResponseWriter, err error) {
	code := models.CodeOf(err)
	message := err.Error()
	var tagged *models.Error
	if errors.As(err, &tagged) && tagged.Message != "" {
		message = tagged.Message
	}
	if code == models.CodeInternal {
		slog.Error("internal error", "error", err)
		message = "internal error"
	}
	write(w, StatusFor(code), api.Envelope{Error: &api.Error{Code: string(code), Message: message}})
}

// Fail writes a failed envelope with an explicit status, for failures that
// happen before a request reaches the coordinator.
func Fail(w http.ResponseWriter, status int, code models.Code, format string, args ...any) {
	write(w, status, api.Envelope{Error: &api.Error{Code: string(code), Message: fmt.Sprintf(format, args...)}})
}

// Decode reads a JSON request body into dst.
func Decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		Fail(w, http.StatusBadRequest, models.CodeInvalidInput, "Invalid request body: %v", err)
		return false
	}
	return true
}

func write(w http.ResponseWriter, status int, env api.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
