package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"applytrack/internal/handler/http/respond"
	"applytrack/internal/resilience/circuitbreaker"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthHandler handles health check endpoint requests. It pings the
// database and reports every circuit breaker's state; an open breaker marks
// the service degraded but the database decides liveness.
type HealthHandler struct {
	DB       *sql.DB
	Breakers *circuitbreaker.Registry
	Version  string
}

const healthCheckTimeout = 2 * time.Second

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]CheckStatus{}
	healthy := true

	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			healthy = false
			checks["database"] = CheckStatus{Status: "unhealthy", Message: respond.Sanitize(err)}
		} else {
			checks["database"] = CheckStatus{Status: "healthy"}
		}
	}

	if h.Breakers != nil {
		states := h.Breakers.States()
		status := "healthy"
		details := make(map[string]any, len(states))
		for name, state := range states {
			details[name] = state
			if state == "open" {
				status = "degraded"
			}
		}
		checks["circuit_breakers"] = CheckStatus{Status: status, Details: details}
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}
	code := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	respond.JSON(w, code, resp)
}
