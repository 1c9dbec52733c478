package handlers

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/photo-booth/internal/apperr"
	"github.com/kozaktomas/photo-booth/internal/boothapi"
	"github.com/kozaktomas/photo-booth/internal/config"
	"github.com/kozaktomas/photo-booth/internal/constants"
)

// TemplateStore uploads and deletes user templates.
type TemplateStore interface {
	UploadTemplate(ctx context.Context, filename string, r io.Reader, gender, category string) (*boothapi.UploadResponse, error)
	DeleteTemplate(ctx context.Context, imageURL string) (*boothapi.DeleteResponse, error)
}

// TemplatesHandler handles user template upload and deletion.
type TemplatesHandler struct {
	store   TemplateStore
	gallery GalleryStore
	catalog config.Catalog
}

// NewTemplatesHandler creates a new templates handler.
func NewTemplatesHandler(store TemplateStore, g GalleryStore, catalog config.Catalog) *TemplatesHandler {
	return &TemplatesHandler{
		store:   store,
		gallery: g,
		catalog: catalog,
	}
}

// UploadResult is the response of a template upload.
type UploadResult struct {
	Message          string `json:"message"`
	SecureURL        string `json:"secure_url"`
	Folder           string `json:"folder"`
	RemainingUploads int    `json:"remaining_uploads"`
}

// refreshGallery reloads the gallery after an upload or delete.
func (h *TemplatesHandler) refreshGallery(ctx context.Context) {
	if err := h.gallery.Refresh(ctx); err != nil {
		log.WithError(err).Warn("Gallery refresh after template change failed")
	}
}

// Upload handles a multipart template upload. The destination folder comes
// from the gender and category form fields, defaulting to the active
// gallery filter.
func (h *TemplatesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "upload template"

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondAppError(w, apperr.Validation(op, "please select a file"))
		return
	}
	defer file.Close()

	if contentType := header.Header.Get("Content-Type"); contentType != "" && !strings.HasPrefix(contentType, "image/") {
		respondAppError(w, apperr.Validation(op, "only image files can be uploaded"))
		return
	}

	gender, category := h.gallery.Filter()
	if v := r.FormValue("gender"); v != "" {
		gender = v
	}
	if v := r.FormValue("category"); v != "" {
		category = v
	}
	if err := validateFilter(h.catalog, gender, category); err != nil {
		respondAppError(w, err)
		return
	}

	if h.gallery.RemainingUploads() == 0 {
		respondAppError(w, apperr.Validation(op, "upload limit reached"))
		return
	}

	filename := filepath.Base(header.Filename)
	resp, err := h.store.UploadTemplate(r.Context(), filename, file, gender, category)
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.WithFields(log.Fields{
		"file":     sanitizeForLog(filename),
		"gender":   gender,
		"category": category,
	}).Info("Template uploaded")

	h.refreshGallery(r.Context())
	respondJSON(w, http.StatusCreated, UploadResult{
		Message:          resp.Message,
		SecureURL:        resp.SecureURL,
		Folder:           boothapi.TemplateFolder(gender, category),
		RemainingUploads: h.gallery.RemainingUploads(),
	})
}

// Delete removes a user template identified by its image URL.
func (h *TemplatesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "delete template"

	imageURL := r.URL.Query().Get("url")
	if imageURL == "" {
		respondAppError(w, apperr.Validation(op, "url is required"))
		return
	}
	if !strings.Contains(imageURL, "/"+constants.UserTemplatesFolder+"/") {
		respondAppError(w, apperr.Validation(op, "only user templates can be deleted"))
		return
	}

	resp, err := h.store.DeleteTemplate(r.Context(), imageURL)
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.WithField("url", sanitizeForLog(imageURL)).Info("Template deleted")

	h.refreshGallery(r.Context())
	respondJSON(w, http.StatusOK, resp)
}
