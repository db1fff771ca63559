// Package api provides the HTTP handlers for verification sessions and the attempt log.
package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ayusman/humanv/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

// timeFormat is used for every timestamp in API responses.
const timeFormat = "2006-01-02T15:04:05Z07:00"

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Debug("write response failed", zap.Error(err))
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
