package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prasanna12art/skill-boost-automator/internal/companion"
	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

type CopilotHandler struct {
	ctrl *companion.Controller
}

func NewCopilotHandler(ctrl *companion.Controller) *CopilotHandler {
	return &CopilotHandler{ctrl: ctrl}
}

// Run handles POST /labs/{id}/copilot/run
func (h *CopilotHandler) Run(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.ctrl.RunCopilot)
}

// Pause handles POST /labs/{id}/copilot/pause
func (h *CopilotHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.ctrl.PauseCopilot)
}

// Reset handles POST /labs/{id}/copilot/reset
func (h *CopilotHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.ctrl.ResetCopilot)
}

func (h *CopilotHandler) respond(w http.ResponseWriter, r *http.Request, op func(string) (models.Lab, error)) {
	lab, err := op(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lab)
}
