package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/photo-booth/internal/apperr"
	"github.com/kozaktomas/photo-booth/internal/config"
	"github.com/kozaktomas/photo-booth/internal/gallery"
	"github.com/kozaktomas/photo-booth/internal/workflow"
)

// Session is the booth session driven by the workflow endpoints.
type Session interface {
	Dispatch(cmd workflow.Command) (workflow.View, error)
	View() workflow.View
	Events() *workflow.Broadcaster
}

// TemplateLookup resolves template ids to images.
type TemplateLookup interface {
	Lookup(id string) (gallery.Template, bool)
}

// WorkflowHandler handles the session endpoints.
type WorkflowHandler struct {
	session   Session
	templates TemplateLookup
	catalog   config.Catalog
}

// NewWorkflowHandler creates a new workflow handler.
func NewWorkflowHandler(session Session, templates TemplateLookup, catalog config.Catalog) *WorkflowHandler {
	return &WorkflowHandler{
		session:   session,
		templates: templates,
		catalog:   catalog,
	}
}

// SelectRequest selects a gallery template.
type SelectRequest struct {
	TemplateID string `json:"template_id"`
}

// SwapRequest chooses the swap mode and model. Both are optional.
type SwapRequest struct {
	Mode  string `json:"mode"`
	Model string `json:"model"`
}

// decodeOptionalJSON decodes the request body into v. An empty body is not
// an error.
func decodeOptionalJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *WorkflowHandler) dispatch(w http.ResponseWriter, cmd workflow.Command) {
	view, err := h.session.Dispatch(cmd)
	if err != nil {
		log.WithFields(log.Fields{
			"command": cmd.Type,
			"kind":    apperr.KindOf(err),
		}).Debug(sanitizeForLog(err.Error()))
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// State returns the current session view.
func (h *WorkflowHandler) State(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.View())
}

// Events streams session events over SSE.
func (h *WorkflowHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSessionEvents(w, r, h.session)
}

// Select highlights a template on the selection page.
func (h *WorkflowHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.TemplateID == "" {
		respondAppError(w, apperr.Validation("select template", "please select an image first"))
		return
	}

	tmpl, ok := h.templates.Lookup(req.TemplateID)
	if !ok {
		respondAppError(w, apperr.Validation("select template", "unknown template "+req.TemplateID))
		return
	}

	h.dispatch(w, workflow.Command{
		Type:          workflow.CmdSelectTemplate,
		TemplateID:    tmpl.ID,
		TemplateImage: tmpl.Image,
	})
}

// ConfirmTemplate moves to the capture page.
func (h *WorkflowHandler) ConfirmTemplate(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, workflow.Command{Type: workflow.CmdConfirmTemplate})
}

// RetryCamera asks for camera access again after a failure.
func (h *WorkflowHandler) RetryCamera(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, workflow.Command{Type: workflow.CmdRetryCamera})
}

// TakeShot captures a frame immediately.
func (h *WorkflowHandler) TakeShot(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, workflow.Command{Type: workflow.CmdTakeShot})
}

// StartCountdown starts the capture countdown.
func (h *WorkflowHandler) StartCountdown(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, workflow.Command{Type: workflow.CmdStartCountdown})
}

// ResetShot discards the captured photo.
func (h *WorkflowHandler) ResetShot(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, workflow.Command{Type: workflow.CmdResetShot})
}

// ConfirmShot moves to the preview page.
func (h *WorkflowHandler) ConfirmShot(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, workflow.Command{Type: workflow.CmdConfirmShot})
}

// Swap starts a swap of the captured photo into the selected template.
func (h *WorkflowHandler) Swap(w http.ResponseWriter, r *http.Request) {
	var req SwapRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Mode != "" && !h.catalog.HasMode(req.Mode) {
		respondAppError(w, apperr.Validation("swap", "unsupported mode "+req.Mode))
		return
	}
	if req.Model != "" && !h.catalog.HasModel(req.Model) {
		respondAppError(w, apperr.Validation("swap", "unsupported model "+req.Model))
		return
	}

	h.dispatch(w, workflow.Command{
		Type:  workflow.CmdTriggerSwap,
		Mode:  req.Mode,
		Model: req.Model,
	})
}

// Redo starts a new session from the preview page.
func (h *WorkflowHandler) Redo(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, workflow.Command{Type: workflow.CmdRedo})
}

// Back returns to the selection page from any page.
func (h *WorkflowHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, workflow.Command{Type: workflow.CmdNavigateBack})
}
