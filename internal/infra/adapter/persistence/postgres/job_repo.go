package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"applytrack/internal/domain/entity"
	"applytrack/internal/repository"
	"applytrack/internal/resilience/retry"
)

// JobRepo implements the JobRepository interface using PostgreSQL.
type JobRepo struct {
	db     *sql.DB
	exec   *retry.Executor
	policy retry.Policy
}

// NewJobRepo creates a new PostgreSQL-backed job posting repository.
func NewJobRepo(db *sql.DB, exec *retry.Executor) repository.JobRepository {
	return &JobRepo{db: db, exec: exec, policy: retry.DBPolicy()}
}

func (repo *JobRepo) Get(ctx context.Context, id uuid.UUID) (*entity.JobPosting, error) {
	const query = `
SELECT id, title, company, location, url, posted_at
FROM jobs
WHERE id = $1
LIMIT 1
`
	var job entity.JobPosting
	err := repo.exec.Run(ctx, repo.policy, BreakerKey, func(ctx context.Context) error {
		var (
			location sql.NullString
			postedAt sql.NullTime
		)
		err := repo.db.QueryRowContext(ctx, query, id).Scan(
			&job.ID, &job.Title, &job.Company, &location, &job.URL, &postedAt,
		)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return entity.ErrNotFound
			}
			return fmt.Errorf("Get: QueryRowContext: %w", err)
		}
		job.Location = location.String
		job.PostedAt = postedAt.Time
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Upsert inserts a posting or refreshes it in place. Postings re-imported
// from the board keep their row, keyed by the URL-derived UUID.
func (repo *JobRepo) Upsert(ctx context.Context, job *entity.JobPosting) error {
	if err := job.Validate(); err != nil {
		return retry.Permanent(err)
	}
	const query = `
INSERT INTO jobs (id, title, company, location, url, posted_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
SET title = EXCLUDED.title,
    company = EXCLUDED.company,
    location = EXCLUDED.location,
    posted_at = EXCLUDED.posted_at
`
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	var postedAt any
	if !job.PostedAt.IsZero() {
		postedAt = job.PostedAt
	}
	return repo.exec.Run(ctx, repo.policy, BreakerKey, func(ctx context.Context) error {
		_, err := repo.db.ExecContext(ctx, query,
			job.ID, job.Title, job.Company, job.Location, job.URL, postedAt)
		if err != nil {
			return fmt.Errorf("Upsert: ExecContext: %w", err)
		}
		return nil
	})
}
