package application

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"applytrack/internal/domain/entity"
	"applytrack/internal/handler/http/respond"
	"applytrack/internal/usecase/track"
)

// pathID parses the {id} wildcard as a UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: id must be a UUID", entity.ErrInvalidInput)
	}
	return id, nil
}

// GetHandler returns one tracked application.
type GetHandler struct{ Svc *track.Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	app, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, entity.ErrNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(app))
}

// ListHandler returns all tracked applications, newest first.
type ListHandler struct{ Svc *track.Service }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Svc.List(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]DTO, 0, len(apps))
	for _, app := range apps {
		out = append(out, toDTO(app))
	}
	respond.JSON(w, http.StatusOK, out)
}
