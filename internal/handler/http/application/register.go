package application

import (
	"net/http"

	"applytrack/internal/usecase/track"
)

// Register registers all application tracking handlers with the given mux.
func Register(mux *http.ServeMux, svc *track.Service) {
	mux.Handle("GET    /applications", ListHandler{svc})
	mux.Handle("POST   /applications", CreateHandler{svc})
	mux.Handle("GET    /applications/{id}", GetHandler{svc})
	mux.Handle("PATCH  /applications/{id}/status", UpdateStatusHandler{svc})
	mux.Handle("POST   /applications/{id}/score", ScoreHandler{svc})
	mux.Handle("DELETE /applications/{id}", DeleteHandler{svc})
}
