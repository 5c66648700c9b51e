package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prasanna12art/skill-boost-automator/internal/companion"
	"github.com/prasanna12art/skill-boost-automator/internal/labs"
	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

type LabHandler struct {
	ctrl *companion.Controller
}

func NewLabHandler(ctrl *companion.Controller) *LabHandler {
	return &LabHandler{ctrl: ctrl}
}

// List handles GET /labs?q=&status=&difficulty=&sort=
func (h *LabHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	all := h.ctrl.Labs()
	writeJSON(w, http.StatusOK, models.ListLabsResponse{
		Labs:  labs.View(all, q),
		Total: len(all),
	})
}

func parseQuery(r *http.Request) (labs.Query, error) {
	v := r.URL.Query()

	sortKey, err := labs.ParseSortKey(v.Get("sort"))
	if err != nil {
		return labs.Query{}, err
	}
	statuses, err := labs.ParseStatuses(v.Get("status"))
	if err != nil {
		return labs.Query{}, err
	}
	difficulties, err := labs.ParseDifficulties(v.Get("difficulty"))
	if err != nil {
		return labs.Query{}, err
	}

	return labs.Query{
		Search:       v.Get("q"),
		Statuses:     statuses,
		Difficulties: difficulties,
		Sort:         sortKey,
	}, nil
}

// Stats handles GET /labs/stats
func (h *LabHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Stats())
}

// Get handles GET /labs/{id}
func (h *LabHandler) Get(w http.ResponseWriter, r *http.Request) {
	lab, ok := h.ctrl.Lab(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "lab not found")
		return
	}
	writeJSON(w, http.StatusOK, lab)
}

// Update handles PATCH /labs/{id}
func (h *LabHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateLabRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	lab, err := h.ctrl.UpdateLab(chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lab)
}

// GenerateSteps handles POST /labs/{id}/steps/generate
func (h *LabHandler) GenerateSteps(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.ctrl.GenerateSteps(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	lab, ok := h.ctrl.Lab(id)
	if !ok {
		writeError(w, http.StatusNotFound, "lab not found")
		return
	}
	writeJSON(w, http.StatusOK, lab)
}

// ToggleStep handles POST /labs/{id}/steps/{stepId}/toggle
func (h *LabHandler) ToggleStep(w http.ResponseWriter, r *http.Request) {
	lab, err := h.ctrl.ToggleStep(chi.URLParam(r, "id"), chi.URLParam(r, "stepId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lab)
}
