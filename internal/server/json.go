package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorMessage is the client-facing summary of any failed request.
const errorMessage = "An error has occurred."

// errorResponse is the JSON body of error responses that carry no cause.
type errorResponse struct {
	Message string `json:"message"`
}

// fetchErrorResponse is the JSON body of a failed catalog lookup.
// Error is always present, even when the cause's message is empty.
type fetchErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
// The body is encoded before any header is written, so an encoding failure
// still produces a well-formed 500 instead of a truncated document.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Message: errorMessage})
	}
	body = append(body, '\n')

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.DebugContext(ctx, "failed to write response", "error", err)
	}
}
