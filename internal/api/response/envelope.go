package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the standard API response wrapper. Failures always carry
// Success=false and a Message.
type Envelope struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Data       any    `json:"data,omitempty"`
	Errors     any    `json:"errors,omitempty"`
	RetryAfter *int   `json:"retry_after,omitempty"`
}

// JSON writes a JSON response with the given status code and envelope.
func JSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Success writes a successful JSON response.
func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{
		Success: true,
		Data:    data,
	})
}

// Message writes a successful JSON response carrying only a message.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{
		Success: true,
		Message: message,
	})
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Err writes an error JSON response.
func Err(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{
		Success: false,
		Message: message,
	})
}

// ErrWithDetails writes an error JSON response with field-level details.
func ErrWithDetails(w http.ResponseWriter, status int, message string, details any) {
	JSON(w, status, Envelope{
		Success: false,
		Message: message,
		Errors:  details,
	})
}

// ErrRetryAfter writes an error JSON response advertising when to retry.
func ErrRetryAfter(w http.ResponseWriter, status int, message string, retryAfter int) {
	JSON(w, status, Envelope{
		Success:    false,
		Message:    message,
		RetryAfter: &retryAfter,
	})
}
