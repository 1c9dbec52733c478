package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/photo-booth/internal/apperr"
	"github.com/kozaktomas/photo-booth/internal/credentials"
)

// Authenticator signs the kiosk in to the booth API.
type Authenticator interface {
	Authenticate(ctx context.Context) error
	Login(ctx context.Context, email, password string) (*credentials.Credentials, error)
	Logout() error
}

// AuthHandler handles the kiosk login surface
type AuthHandler struct {
	auth Authenticator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// StatusResponse reports whether the kiosk holds a usable token.
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
}

// Status runs auto-login when the kiosk has no token yet. A kiosk that
// cannot sign in on its own answers authenticated=false so the page can
// show the login form.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	err := h.auth.Authenticate(r.Context())
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: true})
	case apperr.Is(err, apperr.KindAuth):
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
	default:
		respondAppError(w, err)
	}
}

// Login signs in with email and password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	creds, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.WithField("email", sanitizeForLog(req.Email)).WithError(err).Warn("Kiosk login failed")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, StatusResponse{
		Authenticated: true,
		Email:         creds.Email,
		Name:          creds.Name,
	})
}

// Logout forgets the stored session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
}
