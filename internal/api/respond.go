package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prasanna12art/skill-boost-automator/internal/advisory"
	"github.com/prasanna12art/skill-boost-automator/internal/companion"
	"github.com/prasanna12art/skill-boost-automator/internal/copilot"
	"github.com/prasanna12art/skill-boost-automator/internal/labs"
	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, companion.ErrLabNotFound), errors.Is(err, companion.ErrStepNotFound):
		return http.StatusNotFound
	case errors.Is(err, copilot.ErrSessionCompleted):
		return http.StatusConflict
	case errors.Is(err, copilot.ErrEngineClosed), errors.Is(err, companion.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, companion.ErrInvalidStatus),
		errors.Is(err, companion.ErrInvalidTheme),
		errors.Is(err, labs.ErrUnknownSort),
		errors.Is(err, labs.ErrUnknownStatus),
		errors.Is(err, labs.ErrUnknownDifficulty):
		return http.StatusBadRequest
	case errors.Is(err, advisory.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, errorStatus(err), err.Error())
}
