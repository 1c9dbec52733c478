package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/photo-booth/internal/apperr"
	"github.com/kozaktomas/photo-booth/internal/workflow"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// errorResponse is the body of a classified error.
type errorResponse struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind,omitempty"`
}

// respondAppError maps err to a status code by its kind and writes it.
// Commands the session does not accept from clients answer 400.
func respondAppError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	message := apperr.Message(err)

	if kind == "" {
		switch {
		case errors.Is(err, workflow.ErrUnsupportedCommand):
			status = http.StatusBadRequest
			message = err.Error()
		default:
			log.WithError(err).Error("Unclassified request error")
			message = "internal error"
		}
	}

	respondJSON(w, status, errorResponse{Error: message, Kind: kind})
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
