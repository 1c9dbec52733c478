package handlers

import (
	"context"
	"net/http"

	"github.com/kozaktomas/photo-booth/internal/apperr"
	"github.com/kozaktomas/photo-booth/internal/config"
	"github.com/kozaktomas/photo-booth/internal/gallery"
)

// GalleryStore is the template gallery as seen by the web layer.
type GalleryStore interface {
	Refresh(ctx context.Context) error
	SetFilter(gender, category string)
	Filter() (string, string)
	Snapshot() gallery.Snapshot
	RemainingUploads() int
}

// GalleryHandler handles template gallery endpoints.
type GalleryHandler struct {
	gallery GalleryStore
	catalog config.Catalog
}

// NewGalleryHandler creates a new gallery handler.
func NewGalleryHandler(g GalleryStore, catalog config.Catalog) *GalleryHandler {
	return &GalleryHandler{gallery: g, catalog: catalog}
}

// validateFilter checks gender and category against the catalog. Empty
// values are allowed and keep the current filter.
func validateFilter(catalog config.Catalog, gender, category string) error {
	if gender != "" && !catalog.HasGender(gender) {
		return apperr.Validation("gallery", "unknown gender "+gender)
	}
	if category != "" && !catalog.HasCategory(category) {
		return apperr.Validation("gallery", "unknown category "+category)
	}
	return nil
}

// Get applies the gender and category query filter and returns the gallery.
func (h *GalleryHandler) Get(w http.ResponseWriter, r *http.Request) {
	gender := r.URL.Query().Get("gender")
	category := r.URL.Query().Get("category")
	if err := validateFilter(h.catalog, gender, category); err != nil {
		respondAppError(w, err)
		return
	}

	h.gallery.SetFilter(gender, category)
	respondJSON(w, http.StatusOK, h.gallery.Snapshot())
}

// Refresh fetches the gallery from the booth API. A failed fetch still
// answers with the (now empty) gallery.
func (h *GalleryHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	_ = h.gallery.Refresh(r.Context())
	respondJSON(w, http.StatusOK, h.gallery.Snapshot())
}
