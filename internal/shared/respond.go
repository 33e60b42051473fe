package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the uniform JSON response shape for every endpoint.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// RespondOK writes a success envelope with the given payload.
func RespondOK(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

// RespondMessage writes a success envelope with payload and message.
func RespondMessage(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, Envelope{Success: true, Data: data, Message: message})
}

// RespondList writes a success envelope with pagination metadata.
func RespondList(w http.ResponseWriter, data any, p Pagination) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: &p})
}

// RespondError writes a failure envelope. Upstream failures are logged with
// their internal detail; the caller only ever sees the safe message.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	appErr := AsError(err)
	if appErr.Kind == KindUpstream && logger != nil {
		logger.Error("request failed", slog.Any("error", appErr.Err))
	}
	writeJSON(w, appErr.Status(), Envelope{Success: false, Message: appErr.Message})
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
