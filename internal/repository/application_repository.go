// Package repository defines the persistence interfaces consumed by the use
// case layer. Implementations live under internal/infra/adapter/persistence.
package repository

import (
	"context"

	"github.com/google/uuid"

	"applytrack/internal/domain/entity"
)

// ApplicationRepository persists tracked job applications.
type ApplicationRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Application, error)
	List(ctx context.Context) ([]*entity.Application, error)
	Create(ctx context.Context, app *entity.Application) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.Status) error
	SetScore(ctx context.Context, id uuid.UUID, score entity.MatchScore) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// JobRepository persists job postings imported from external boards.
type JobRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.JobPosting, error)
	Upsert(ctx context.Context, job *entity.JobPosting) error
}
