// Package httputil provides shared HTTP helpers for the gateway handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/errors"
)

// Envelope is the uniform response shape for all non-proxied endpoints.
type Envelope struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// WriteData writes a success envelope.
func WriteData(w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(w, status, Envelope{OK: true, Data: data})
}

// WriteError writes a failure envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, Envelope{OK: false, Error: message})
}

// WriteServiceError converts a taxonomy error to its envelope response.
func WriteServiceError(w http.ResponseWriter, err error) {
	svcErr := errors.FromError(err)
	WriteError(w, svcErr.HTTPStatus, svcErr.Message)
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
