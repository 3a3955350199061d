// Package search provides the job search use case. A query first consults
// the TTL cache, then collapses concurrent misses for the same canonical
// query into one board call via singleflight, so a popular search hits the
// external board at most once per TTL window under load.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"applytrack/internal/domain/entity"
	"applytrack/internal/infra/jobboard"
	"applytrack/internal/observability/tracing"
	"applytrack/internal/repository"
	"applytrack/internal/resilience/cache"
)

// Searcher is the board client contract consumed by the service.
type Searcher interface {
	Search(ctx context.Context, q jobboard.Query) ([]*entity.JobPosting, error)
}

// Service composes cache, singleflight and the board client into one
// search path.
type Service struct {
	client Searcher
	cache  *cache.Cache[[]*entity.JobPosting]
	store  repository.JobRepository
	group  singleflight.Group
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithStore persists fetched postings so applications can reference them.
// Store failures are logged and never fail the search.
func WithStore(store repository.JobRepository) Option {
	return func(s *Service) { s.store = store }
}

// NewService creates a search service around the given board client and
// result cache.
func NewService(client Searcher, c *cache.Cache[[]*entity.JobPosting], logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{client: client, cache: c, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// params maps a query onto the cache key space. Normalization (trimming,
// case folding) happens inside the cache key derivation.
func params(q jobboard.Query) cache.Params {
	return cache.Params{
		"keywords": q.Keywords,
		"location": q.Location,
		"remote":   strconv.FormatBool(q.Remote),
	}
}

// Search returns postings for the query, preferring cached results.
func (s *Service) Search(ctx context.Context, q jobboard.Query) ([]*entity.JobPosting, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "search.Search")
	defer span.End()

	p := params(q)
	if jobs, ok := s.cache.Get(p); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return jobs, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	key := cache.Canonical(p)
	v, err, shared := s.group.Do(key, func() (any, error) {
		// A concurrent flight may have already populated the cache between
		// our miss and this call.
		if jobs, ok := s.cache.Get(p); ok {
			return jobs, nil
		}
		jobs, err := s.client.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		s.persist(ctx, jobs)
		s.cache.Put(p, jobs)
		return jobs, nil
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q.Keywords, err)
	}
	if shared {
		s.logger.Debug("search collapsed into in-flight call",
			slog.String("key", key))
	}

	jobs := v.([]*entity.JobPosting)
	span.SetAttributes(attribute.Int("search.results", len(jobs)))
	return jobs, nil
}

// persist upserts fetched postings so they can be tracked. Failures degrade
// to search-only behavior.
func (s *Service) persist(ctx context.Context, jobs []*entity.JobPosting) {
	if s.store == nil {
		return
	}
	for _, job := range jobs {
		if err := s.store.Upsert(ctx, job); err != nil {
			s.logger.Warn("failed to persist posting",
				slog.String("url", job.URL),
				slog.Any("error", err))
		}
	}
}

// CacheStats exposes the result cache's accounting for health reporting.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}
