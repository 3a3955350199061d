// Package jobsearch provides the HTTP handler for the job search endpoint.
package jobsearch

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"applytrack/internal/domain/entity"
	"applytrack/internal/handler/http/respond"
	"applytrack/internal/infra/jobboard"
	"applytrack/internal/resilience/circuitbreaker"
	"applytrack/internal/resilience/retry"
	"applytrack/internal/usecase/search"
)

// DTO represents the JSON structure for a job posting search result.
type DTO struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Company  string    `json:"company"`
	Location string    `json:"location,omitempty"`
	URL      string    `json:"url"`
	PostedAt time.Time `json:"posted_at,omitempty"`
}

// Handler serves GET /jobs/search.
type Handler struct{ Svc *search.Service }

// Register registers the job search handler with the given mux.
func Register(mux *http.ServeMux, svc *search.Service) {
	mux.Handle("GET /jobs/search", Handler{svc})
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := jobboard.Query{
		Keywords: r.URL.Query().Get("q"),
		Location: r.URL.Query().Get("location"),
		Remote:   r.URL.Query().Get("remote") == "true",
	}
	if q.Keywords == "" {
		respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("%w: query parameter q is required", entity.ErrInvalidInput))
		return
	}

	jobs, err := h.Svc.Search(r.Context(), q)
	if err != nil {
		code := http.StatusBadGateway
		var rle *retry.RateLimitError
		switch {
		case errors.Is(err, circuitbreaker.ErrCircuitOpen):
			// The board is known-unhealthy; tell clients to back off.
			code = http.StatusServiceUnavailable
		case errors.As(err, &rle):
			code = http.StatusTooManyRequests
		}
		respond.SafeError(w, code, err)
		return
	}

	out := make([]DTO, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, DTO{
			ID:       job.ID.String(),
			Title:    job.Title,
			Company:  job.Company,
			Location: job.Location,
			URL:      job.URL,
			PostedAt: job.PostedAt,
		})
	}
	respond.JSON(w, http.StatusOK, out)
}
