package application

import (
	"errors"
	"net/http"

	"applytrack/internal/domain/entity"
	"applytrack/internal/handler/http/respond"
	"applytrack/internal/usecase/track"
)

// DeleteHandler stops tracking an application.
type DeleteHandler struct{ Svc *track.Service }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.Svc.Delete(r.Context(), id); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, entity.ErrNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
