package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kozaktomas/photo-booth/internal/database/postgres"
)

// HistoryStore lists recorded swaps.
type HistoryStore interface {
	List(ctx context.Context, model string, limit int) ([]postgres.SwapEntry, error)
	CountByModel(ctx context.Context) (map[string]int, error)
}

// HistoryHandler serves the swap history.
type HistoryHandler struct {
	store HistoryStore
}

// NewHistoryHandler creates a new history handler. A nil store means the
// history is disabled.
func NewHistoryHandler(store HistoryStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// HistoryResponse is the history listing.
type HistoryResponse struct {
	Swaps  []postgres.SwapEntry `json:"swaps"`
	Counts map[string]int       `json:"counts"`
}

// List returns recent swaps, optionally filtered by ?model= and capped by ?limit=.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "swap history is disabled")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	swaps, err := h.store.List(r.Context(), r.URL.Query().Get("model"), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list swaps")
		return
	}
	counts, err := h.store.CountByModel(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count swaps")
		return
	}
	if swaps == nil {
		swaps = []postgres.SwapEntry{}
	}

	respondJSON(w, http.StatusOK, HistoryResponse{Swaps: swaps, Counts: counts})
}
