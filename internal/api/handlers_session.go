package api

import (
	"net/http"

	"github.com/prasanna12art/skill-boost-automator/internal/companion"
	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

// SessionHandler serves the per-process UI state: selection, insights and
// the theme preference.
type SessionHandler struct {
	ctrl *companion.Controller
}

func NewSessionHandler(ctrl *companion.Controller) *SessionHandler {
	return &SessionHandler{ctrl: ctrl}
}

// GetSelection handles GET /selection
func (h *SessionHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	lab, ok := h.ctrl.Selected()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, lab)
}

// PutSelection handles PUT /selection
func (h *SessionHandler) PutSelection(w http.ResponseWriter, r *http.Request) {
	var req models.SelectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	id := ""
	if req.LabID != nil {
		id = *req.LabID
	}
	lab, ok := h.ctrl.Select(id)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, lab)
}

// GetInsights handles GET /insights
func (h *SessionHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Insights())
}

// RefreshInsights handles POST /insights/refresh
func (h *SessionHandler) RefreshInsights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusAccepted, h.ctrl.RefreshInsights())
}

// GetTheme handles GET /preferences/theme
func (h *SessionHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ThemeResponse{Theme: h.ctrl.Theme()})
}

// PutTheme handles PUT /preferences/theme
func (h *SessionHandler) PutTheme(w http.ResponseWriter, r *http.Request) {
	var req models.ThemeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.ctrl.SetTheme(req.Theme); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ThemeResponse{Theme: req.Theme})
}

// ToggleTheme handles POST /preferences/theme/toggle
func (h *SessionHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	t, err := h.ctrl.ToggleTheme()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ThemeResponse{Theme: t})
}
