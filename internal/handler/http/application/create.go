package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"applytrack/internal/domain/entity"
	"applytrack/internal/handler/http/respond"
	"applytrack/internal/usecase/track"
)

// CreateHandler starts tracking an application for a stored job posting.
type CreateHandler struct{ Svc *track.Service }

type createRequest struct {
	JobID string `json:"job_id"`
	Notes string `json:"notes"`
}

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("%w: malformed JSON body", entity.ErrInvalidInput))
		return
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("%w: job_id must be a UUID", entity.ErrInvalidInput))
		return
	}

	app, err := h.Svc.Create(r.Context(), track.CreateInput{JobID: jobID, Notes: req.Notes})
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, entity.ErrNotFound) {
			code = http.StatusNotFound
		}
		var verr *entity.ValidationError
		if errors.As(err, &verr) {
			code = http.StatusBadRequest
		}
		respond.SafeError(w, code, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toDTO(app))
}
