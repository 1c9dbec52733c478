package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kozaktomas/photo-booth/internal/apperr"
	"github.com/kozaktomas/photo-booth/internal/capture"
	"github.com/kozaktomas/photo-booth/internal/constants"
	"github.com/kozaktomas/photo-booth/internal/workflow"
)

// ResultDownloader fetches swap result images.
type ResultDownloader interface {
	DownloadResult(ctx context.Context, imageURL string) ([]byte, string, error)
}

// SessionViewer exposes the read-only session view.
type SessionViewer interface {
	View() workflow.View
}

// ResultHandler serves the swap result of the current session.
type ResultHandler struct {
	session    SessionViewer
	downloader ResultDownloader
}

// NewResultHandler creates a new result handler.
func NewResultHandler(session SessionViewer, downloader ResultDownloader) *ResultHandler {
	return &ResultHandler{session: session, downloader: downloader}
}

func (h *ResultHandler) result(w http.ResponseWriter) *workflow.SwapResult {
	result := h.session.View().SwapResult
	if result == nil {
		respondError(w, http.StatusNotFound, "no swap result")
	}
	return result
}

func writeImage(w http.ResponseWriter, data []byte, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Image downloads the swapped image as an attachment.
func (h *ResultHandler) Image(w http.ResponseWriter, r *http.Request) {
	result := h.result(w)
	if result == nil {
		return
	}

	data, contentType, err := h.downloader.DownloadResult(r.Context(), result.ResultImageURL)
	if err != nil {
		respondAppError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", constants.ResultFilename))
	writeImage(w, data, contentType)
}

// QRCode serves the decoded share QR code image.
func (h *ResultHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	result := h.result(w)
	if result == nil {
		return
	}

	data, contentType, err := capture.DecodeDataURL(result.ShareCode)
	if err != nil {
		respondAppError(w, apperr.MissingArtifact("qr code", err.Error()))
		return
	}
	writeImage(w, data, contentType)
}
