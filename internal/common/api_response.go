package common

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fieldops/fieldmirror/internal/constants"
	"github.com/fieldops/fieldmirror/internal/logging"
)

// APIResponse is the standard JSON envelope for every endpoint.
type APIResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	ResponseTime string `json:"response_time"`
	Data         any    `json:"data,omitempty"`
}

// RespondSuccess sends a standardized JSON success response.
func RespondSuccess(w http.ResponseWriter, initTime time.Time, message string, data any, statusCode ...int) {
	code := http.StatusOK
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	response := APIResponse{
		Status:       string(constants.APIStatusOk),
		Message:      message,
		ResponseTime: time.Since(initTime).Truncate(time.Microsecond).String(),
		Data:         data,
	}

	writeJSON(w, code, response)
}

// RespondError sends a standardized JSON error response.
func RespondError(w http.ResponseWriter, initTime time.Time, err error, message string, statusCode ...int) {
	code := http.StatusInternalServerError
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	msg := message
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}

	response := APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      msg,
		ResponseTime: time.Since(initTime).Truncate(time.Microsecond).String(),
	}

	writeJSON(w, code, response)
}

// writeJSON marshals data and writes it to the HTTP response.
func writeJSON(w http.ResponseWriter, code int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("JSON encode failed", "error", err.Error())
	}
}
