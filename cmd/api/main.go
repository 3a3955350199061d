package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"applytrack/internal/bootstrap"
	"applytrack/internal/config"
	pgRepo "applytrack/internal/infra/adapter/persistence/postgres"
	"applytrack/internal/infra/db"
	"applytrack/internal/infra/jobboard"
	"applytrack/internal/infra/scoring"
	"applytrack/internal/observability/logging"
	"applytrack/internal/observability/tracing"
	"applytrack/internal/resilience/cache"
	"applytrack/internal/resilience/retry"
	searchUC "applytrack/internal/usecase/search"
	trackUC "applytrack/internal/usecase/track"
	pkgconfig "applytrack/pkg/config"

	hhttp "applytrack/internal/handler/http"
	happlication "applytrack/internal/handler/http/application"
	hjobsearch "applytrack/internal/handler/http/jobsearch"
	"applytrack/internal/handler/http/requestid"

	"applytrack/internal/domain/entity"
	"applytrack/internal/observability/metrics"
)

func main() {
	logger := logging.NewLogger()

	shutdownTracing := tracing.InitProvider("applytrack-api")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	resCfg := loadResilienceConfig(logger)
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	handler := setupServer(logger, database, resCfg)
	runServer(logger, handler, getVersion())
}

// loadResilienceConfig loads the resilience settings, optionally from the
// YAML file named by RESILIENCE_CONFIG.
func loadResilienceConfig(logger *slog.Logger) config.Resilience {
	cfg, err := config.LoadResilience(os.Getenv("RESILIENCE_CONFIG"))
	if err != nil {
		logger.Error("failed to load resilience configuration", slog.Any("error", err))
		os.Exit(1)
	}
	return cfg
}

// initDatabase opens the database connection and runs migrations.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

func getVersion() string {
	return pkgconfig.GetEnvString("VERSION", "dev")
}

// setupServer wires repositories, clients and use cases and returns the root
// HTTP handler.
func setupServer(logger *slog.Logger, database *sql.DB, resCfg config.Resilience) http.Handler {
	breakers := bootstrap.NewBreakerRegistry(resCfg)
	exec := retry.NewExecutor(
		retry.WithBreakers(breakers),
		retry.WithRecorder(metrics.NewRetryRecorder()),
		retry.WithLogger(logger),
	)

	appRepo := pgRepo.NewApplicationRepo(database, exec)
	jobRepo := pgRepo.NewJobRepo(database, exec)

	boardClient := jobboard.NewClient(jobboard.Config{
		BaseURL:        pkgconfig.GetEnvString("JOBBOARD_BASE_URL", "https://api.jobboard.example.com"),
		APIKey:         os.Getenv("JOBBOARD_API_KEY"),
		Timeout:        pkgconfig.GetEnvDuration("JOBBOARD_TIMEOUT", 15*time.Second),
		RequestsPerSec: 2,
		Burst:          4,
	}, exec, logger)

	searchCache := cache.New[[]*entity.JobPosting](
		resCfg.Cache.TTL.Std(),
		cache.WithMaxEntries[[]*entity.JobPosting](resCfg.Cache.MaxEntries),
		cache.WithRecorder[[]*entity.JobPosting](metrics.NewCacheRecorder("search")),
	)

	searchSvc := searchUC.NewService(boardClient, searchCache, logger, searchUC.WithStore(jobRepo))
	trackSvc := trackUC.NewService(appRepo, jobRepo, scoring.NewFromEnv(exec, logger), logger)

	mux := http.NewServeMux()
	happlication.Register(mux, trackSvc)
	hjobsearch.Register(mux, searchSvc)
	mux.Handle("GET /healthz", &hhttp.HealthHandler{
		DB:       database,
		Breakers: breakers,
		Version:  getVersion(),
	})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	return hhttp.Chain(mux,
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Recover(logger),
		hhttp.Logging(logger),
		hhttp.Timeout(pkgconfig.GetEnvDuration("REQUEST_TIMEOUT", 30*time.Second)),
		hhttp.MetricsMiddleware,
	)
}

// runServer starts the HTTP server and blocks until SIGINT/SIGTERM, then
// shuts down gracefully.
func runServer(logger *slog.Logger, handler http.Handler, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := pkgconfig.GetEnvString("LISTEN_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
