package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"applytrack/internal/domain/entity"
	"applytrack/internal/handler/http/respond"
	"applytrack/internal/usecase/track"
)

// UpdateStatusHandler moves an application to a new lifecycle stage.
type UpdateStatusHandler struct{ Svc *track.Service }

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h UpdateStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("%w: malformed JSON body", entity.ErrInvalidInput))
		return
	}

	if err := h.Svc.UpdateStatus(r.Context(), id, entity.Status(req.Status)); err != nil {
		code := http.StatusInternalServerError
		switch {
		case errors.Is(err, entity.ErrNotFound):
			code = http.StatusNotFound
		case errors.Is(err, entity.ErrInvalidInput):
			code = http.StatusBadRequest
		}
		respond.SafeError(w, code, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

// ScoreHandler computes and stores an AI match score for the application.
type ScoreHandler struct{ Svc *track.Service }

type scoreRequest struct {
	Profile string `json:"profile"`
}

func (h ScoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("%w: malformed JSON body", entity.ErrInvalidInput))
		return
	}
	if req.Profile == "" {
		respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("%w: profile is required", entity.ErrInvalidInput))
		return
	}

	score, err := h.Svc.ScoreApplication(r.Context(), id, req.Profile)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, entity.ErrNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}
	respond.JSON(w, http.StatusOK, ScoreDTO{
		Score:     score.Score,
		Rationale: score.Rationale,
		ScoredAt:  score.ScoredAt,
	})
}
