package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prasanna12art/skill-boost-automator/internal/advisory"
	"github.com/prasanna12art/skill-boost-automator/internal/labs"
	"github.com/prasanna12art/skill-boost-automator/internal/models"
	"github.com/prasanna12art/skill-boost-automator/internal/store"
)

type HealthHandler struct {
	kv      store.KV
	labs    *labs.Store
	advisor advisory.Advisor
}

func NewHealthHandler(kv store.KV, st *labs.Store, advisor advisory.Advisor) *HealthHandler {
	return &HealthHandler{kv: kv, labs: st, advisor: advisor}
}

// Health handles GET /health. The advisor being down degrades the report but
// not the status code, since labs and the copilot work without it.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := models.HealthResponse{
		Status:   "ok",
		LabCount: h.labs.Len(),
	}

	if err := h.advisor.HealthCheck(ctx); err != nil {
		resp.Advisor = models.ServiceCheck{Status: "error", Message: err.Error()}
		resp.Status = "degraded"
	} else {
		resp.Advisor = models.ServiceCheck{Status: "ok", Message: h.advisor.Name()}
	}

	status := http.StatusOK
	if err := h.kv.Ping(ctx); err != nil {
		resp.Store = models.ServiceCheck{Status: "error", Message: err.Error()}
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	} else {
		resp.Store = models.ServiceCheck{Status: "ok"}
	}

	writeJSON(w, status, resp)
}
