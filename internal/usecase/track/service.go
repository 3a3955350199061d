// Package track provides application tracking use cases: CRUD over tracked
// applications and AI match scoring against the stored posting.
package track

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"applytrack/internal/domain/entity"
	"applytrack/internal/infra/scoring"
	"applytrack/internal/repository"
)

// Service provides application tracking use cases.
type Service struct {
	Apps   repository.ApplicationRepository
	Jobs   repository.JobRepository
	Scorer scoring.Scorer
	Logger *slog.Logger
}

// NewService creates a tracking service.
func NewService(apps repository.ApplicationRepository, jobs repository.JobRepository, scorer scoring.Scorer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Apps: apps, Jobs: jobs, Scorer: scorer, Logger: logger}
}

// CreateInput represents the input parameters for tracking a new application.
type CreateInput struct {
	JobID uuid.UUID
	Notes string
}

// Create starts tracking an application in the applied stage.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Application, error) {
	if _, err := s.Jobs.Get(ctx, in.JobID); err != nil {
		return nil, fmt.Errorf("create application: job %s: %w", in.JobID, err)
	}

	app := &entity.Application{
		JobID:  in.JobID,
		Status: entity.StatusApplied,
		Notes:  in.Notes,
	}
	if err := s.Apps.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.Logger.Info("application tracked",
		slog.String("application_id", app.ID.String()),
		slog.String("job_id", in.JobID.String()))
	return app, nil
}

// Get returns one tracked application.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	app, err := s.Apps.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get application %s: %w", id, err)
	}
	return app, nil
}

// List returns all tracked applications, newest first.
func (s *Service) List(ctx context.Context) ([]*entity.Application, error) {
	apps, err := s.Apps.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// UpdateStatus moves an application to a new lifecycle stage.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.Status) error {
	if err := s.Apps.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update status of %s: %w", id, err)
	}
	s.Logger.Info("application status updated",
		slog.String("application_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// Delete stops tracking an application.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Apps.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete application %s: %w", id, err)
	}
	return nil
}

// ScoreApplication computes and persists an AI match score for the
// application's posting against the candidate profile.
func (s *Service) ScoreApplication(ctx context.Context, id uuid.UUID, profile string) (*entity.MatchScore, error) {
	app, err := s.Apps.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("score application %s: %w", id, err)
	}
	job, err := s.Jobs.Get(ctx, app.JobID)
	if err != nil {
		return nil, fmt.Errorf("score application %s: job %s: %w", id, app.JobID, err)
	}

	score, err := s.Scorer.Score(ctx, job, profile)
	if err != nil {
		return nil, fmt.Errorf("score application %s: %w", id, err)
	}
	if err := s.Apps.SetScore(ctx, id, *score); err != nil {
		return nil, fmt.Errorf("score application %s: persist: %w", id, err)
	}

	s.Logger.Info("application scored",
		slog.String("application_id", id.String()),
		slog.Int("score", score.Score))
	return score, nil
}
