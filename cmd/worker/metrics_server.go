package main

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	hhttp "applytrack/internal/handler/http"
	"applytrack/internal/resilience/circuitbreaker"
	pkgconfig "applytrack/pkg/config"
)

// startMetricsServer serves /metrics and /healthz for the worker on its own
// listener, so operators can scrape and probe it independently of the API.
func startMetricsServer(logger *slog.Logger, database *sql.DB, breakers *circuitbreaker.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", hhttp.MetricsHandler())
	mux.Handle("GET /healthz", &hhttp.HealthHandler{
		DB:       database,
		Breakers: breakers,
		Version:  pkgconfig.GetEnvString("VERSION", "dev"),
	})

	addr := pkgconfig.GetEnvString("METRICS_ADDR", ":9090")
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()
	return srv
}
