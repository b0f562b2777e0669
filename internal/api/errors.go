package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/nerrad567/gardencore/internal/automation"
	"github.com/nerrad567/gardencore/internal/device"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
	ErrCodeUnavailable  = "unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeScheduleError maps automation and device errors to HTTP responses
// and returns the status written.
func writeScheduleError(w http.ResponseWriter, err error) int {
	switch {
	case errors.Is(err, automation.ErrPolicyViolation):
		writeForbidden(w, err.Error())
		return http.StatusForbidden
	case errors.Is(err, automation.ErrJobNotFound),
		errors.Is(err, device.ErrGardenNotFound),
		errors.Is(err, device.ErrAgentNotFound),
		errors.Is(err, device.ErrESPNotFound),
		errors.Is(err, device.ErrNoMatchingDevices):
		writeNotFound(w, err.Error())
		return http.StatusNotFound
	case errors.Is(err, automation.ErrJobExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
		return http.StatusConflict
	case errors.Is(err, automation.ErrInvalidJobID),
		errors.Is(err, automation.ErrInvalidCron),
		errors.Is(err, automation.ErrUnknownWeekday),
		errors.Is(err, automation.ErrInvalidTime),
		errors.Is(err, automation.ErrInvalidInterval),
		errors.Is(err, automation.ErrUnknownAction),
		errors.Is(err, device.ErrUnsupportedAction):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, err.Error())
		return http.StatusUnprocessableEntity
	default:
		writeInternalError(w, "internal server error")
		return http.StatusInternalServerError
	}
}
