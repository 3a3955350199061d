// The worker keeps the job search cache warm. On a cron schedule it loads
// every saved search and runs it through the search service, so API reads
// served within the TTL window come from cache and re-imported postings stay
// fresh in the database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	"applytrack/internal/bootstrap"
	"applytrack/internal/config"
	"applytrack/internal/domain/entity"
	pgRepo "applytrack/internal/infra/adapter/persistence/postgres"
	"applytrack/internal/infra/db"
	"applytrack/internal/infra/jobboard"
	"applytrack/internal/observability/logging"
	"applytrack/internal/observability/metrics"
	"applytrack/internal/resilience/cache"
	"applytrack/internal/resilience/pool"
	"applytrack/internal/resilience/retry"
	searchUC "applytrack/internal/usecase/search"
	pkgconfig "applytrack/pkg/config"
)

func main() {
	logger := logging.NewLogger()

	resCfg, err := config.LoadResilience(os.Getenv("RESILIENCE_CONFIG"))
	if err != nil {
		logger.Error("failed to load resilience configuration", slog.Any("error", err))
		os.Exit(1)
	}

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	connPool, err := db.NewConnPool(pool.Config{
		MaxSize:        resCfg.Pool.MaxSize,
		AcquireTimeout: resCfg.Pool.AcquireTimeout.Std(),
	}, os.Getenv("DATABASE_URL"))
	if err != nil {
		logger.Error("failed to build connection pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer connPool.Close()

	breakers := bootstrap.NewBreakerRegistry(resCfg)
	exec := retry.NewExecutor(
		retry.WithBreakers(breakers),
		retry.WithRecorder(metrics.NewRetryRecorder()),
		retry.WithLogger(logger),
	)

	boardClient := jobboard.NewClient(jobboard.Config{
		BaseURL: pkgconfig.GetEnvString("JOBBOARD_BASE_URL", "https://api.jobboard.example.com"),
		APIKey:  os.Getenv("JOBBOARD_API_KEY"),
	}, exec, logger)

	searchCache := cache.New[[]*entity.JobPosting](
		resCfg.Cache.TTL.Std(),
		cache.WithMaxEntries[[]*entity.JobPosting](resCfg.Cache.MaxEntries),
		cache.WithRecorder[[]*entity.JobPosting](metrics.NewCacheRecorder("search")),
	)

	jobRepo := pgRepo.NewJobRepo(database, exec)
	searchSvc := searchUC.NewService(boardClient, searchCache, logger, searchUC.WithStore(jobRepo))

	refresher := &refresher{
		searches: &savedSearchStore{pool: connPool},
		search:   searchSvc,
		pool:     connPool,
		logger:   logger,
	}

	schedule := pkgconfig.GetEnvString("REFRESH_SCHEDULE", "*/30 * * * *")
	c := cron.New()
	if _, err := c.AddFunc(schedule, refresher.run); err != nil {
		logger.Error("invalid refresh schedule",
			slog.String("schedule", schedule),
			slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()
	logger.Info("worker started", slog.String("schedule", schedule))

	metricsSrv := startMetricsServer(logger, database, breakers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down worker...")

	cronCtx := c.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", slog.Any("error", err))
	}
	logger.Info("worker stopped")
}

// refresher runs one refresh pass: load saved searches over a pooled
// connection, then run each through the search service.
type refresher struct {
	searches *savedSearchStore
	search   *searchUC.Service
	pool     *pool.Pool[*pgx.Conn]
	logger   *slog.Logger
}

func (r *refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	queries, err := r.searches.List(ctx)
	if err != nil {
		r.logger.Error("failed to load saved searches", slog.Any("error", err))
		return
	}

	var failed int
	for _, q := range queries {
		if _, err := r.search.Search(ctx, q); err != nil {
			failed++
			r.logger.Warn("saved search refresh failed",
				slog.String("keywords", q.Keywords),
				slog.Any("error", err))
		}
	}

	stats := r.pool.Stats()
	metrics.SetPoolStats("db", stats.Active, stats.Idle)

	r.logger.Info("saved searches refreshed",
		slog.Int("total", len(queries)),
		slog.Int("failed", failed))
}

// savedSearchStore loads saved searches over a dedicated pooled connection.
type savedSearchStore struct {
	pool *pool.Pool[*pgx.Conn]
}

func (s *savedSearchStore) List(ctx context.Context) ([]jobboard.Query, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer s.pool.Release(conn)

	rows, err := conn.Query(ctx, `SELECT keywords, location, remote FROM saved_searches ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query saved searches: %w", err)
	}
	defer rows.Close()

	var queries []jobboard.Query
	for rows.Next() {
		var (
			q        jobboard.Query
			location *string
		)
		if err := rows.Scan(&q.Keywords, &location, &q.Remote); err != nil {
			return nil, fmt.Errorf("scan saved search: %w", err)
		}
		if location != nil {
			q.Location = *location
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}
