package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Metadata accompanies successful responses.
type Metadata struct {
	Count       int       `json:"count,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

type envelope struct {
	Success  bool      `json:"success"`
	Data     any       `json:"data,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Error    string    `json:"error,omitempty"`
}

func respond(w http.ResponseWriter, status int, data any, meta *Metadata) {
	if meta == nil {
		meta = &Metadata{}
	}
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now().UTC()
	}
	writeJSON(w, status, envelope{Success: true, Data: data, Metadata: meta})
}

// respondError sends a failure envelope. msg must be safe for clients;
// internals belong in the log, not the response.
func respondError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}
