package handlers

import (
	"context"
	"net/http"

	"github.com/kozaktomas/photo-booth/internal/boothapi"
	"github.com/kozaktomas/photo-booth/internal/config"
	"github.com/kozaktomas/photo-booth/internal/constants"
)

// HeartbeatChecker reports booth API health.
type HeartbeatChecker interface {
	Heartbeat(ctx context.Context) (*boothapi.HeartbeatResponse, error)
}

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config    *config.Config
	heartbeat HeartbeatChecker
	history   bool
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config, heartbeat HeartbeatChecker, historyEnabled bool) *ConfigHandler {
	return &ConfigHandler{
		config:    cfg,
		heartbeat: heartbeat,
		history:   historyEnabled,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Genders          []string `json:"genders"`
	Categories       []string `json:"categories"`
	Modes            []string `json:"modes"`
	Models           []string `json:"models"`
	DefaultMode      string   `json:"default_mode"`
	DefaultModel     string   `json:"default_model"`
	UploadQuota      int      `json:"upload_quota"`
	CountdownTicks   int      `json:"countdown_ticks"`
	NoticeDurationMS int64    `json:"notice_duration_ms"`
	HistoryEnabled   bool     `json:"history_enabled"`
}

// Get returns the catalog and timing settings the front end needs.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	catalog := h.config.Catalog
	respondJSON(w, http.StatusOK, ConfigResponse{
		Genders:          catalog.Genders,
		Categories:       catalog.Categories,
		Modes:            catalog.Modes,
		Models:           catalog.Models,
		DefaultMode:      constants.DefaultMode,
		DefaultModel:     constants.DefaultModel,
		UploadQuota:      constants.UploadQuota,
		CountdownTicks:   constants.CountdownTicks,
		NoticeDurationMS: constants.NoticeDuration.Milliseconds(),
		HistoryEnabled:   h.history,
	})
}

// Heartbeat proxies the booth API heartbeat.
func (h *ConfigHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	resp, err := h.heartbeat.Heartbeat(r.Context())
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
