// Package postgres provides PostgreSQL implementations of repository
// interfaces. Every statement runs through the retry executor under the
// shared database circuit breaker, so transient connection faults are
// absorbed here rather than in the use case layer.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"applytrack/internal/domain/entity"
	"applytrack/internal/repository"
	"applytrack/internal/resilience/retry"
)

// BreakerKey names the circuit breaker shared by all database callers.
const BreakerKey = "database"

// ApplicationRepo implements the ApplicationRepository interface using PostgreSQL.
type ApplicationRepo struct {
	db     *sql.DB
	exec   *retry.Executor
	policy retry.Policy
}

// NewApplicationRepo creates a new PostgreSQL-backed application repository.
func NewApplicationRepo(db *sql.DB, exec *retry.Executor) repository.ApplicationRepository {
	return &ApplicationRepo{db: db, exec: exec, policy: retry.DBPolicy()}
}

func (repo *ApplicationRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	const query = `
SELECT id, job_id, status, notes, score, score_rationale, scored_at, created_at, updated_at
FROM applications
WHERE id = $1
LIMIT 1
`
	var app entity.Application
	err := repo.exec.Run(ctx, repo.policy, BreakerKey, func(ctx context.Context) error {
		var (
			score     sql.NullInt64
			rationale sql.NullString
			scoredAt  sql.NullTime
			notes     sql.NullString
		)
		err := repo.db.QueryRowContext(ctx, query, id).Scan(
			&app.ID, &app.JobID, &app.Status, &notes,
			&score, &rationale, &scoredAt, &app.CreatedAt, &app.UpdatedAt,
		)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return entity.ErrNotFound
			}
			return fmt.Errorf("Get: QueryRowContext: %w", err)
		}
		app.Notes = notes.String
		app.Score = scanScore(score, rationale, scoredAt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// List retrieves all applications ordered by creation time (newest first).
func (repo *ApplicationRepo) List(ctx context.Context) ([]*entity.Application, error) {
	const query = `
SELECT id, job_id, status, notes, score, score_rationale, scored_at, created_at, updated_at
FROM applications
ORDER BY created_at DESC
`
	var apps []*entity.Application
	err := repo.exec.Run(ctx, repo.policy, BreakerKey, func(ctx context.Context) error {
		rows, err := repo.db.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("List: QueryContext: %w", err)
		}
		defer func() { _ = rows.Close() }()

		apps = make([]*entity.Application, 0, 50)
		for rows.Next() {
			var (
				app       entity.Application
				score     sql.NullInt64
				rationale sql.NullString
				scoredAt  sql.NullTime
				notes     sql.NullString
			)
			err := rows.Scan(&app.ID, &app.JobID, &app.Status, &notes,
				&score, &rationale, &scoredAt, &app.CreatedAt, &app.UpdatedAt)
			if err != nil {
				return fmt.Errorf("List: Scan: %w", err)
			}
			app.Notes = notes.String
			app.Score = scanScore(score, rationale, scoredAt)
			apps = append(apps, &app)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("List: rows.Err: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (repo *ApplicationRepo) Create(ctx context.Context, app *entity.Application) error {
	if err := app.Validate(); err != nil {
		return retry.Permanent(err)
	}
	const query = `
INSERT INTO applications (id, job_id, status, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
`
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().UTC()
	}
	app.UpdatedAt = app.CreatedAt

	return repo.exec.Run(ctx, repo.policy, BreakerKey, func(ctx context.Context) error {
		_, err := repo.db.ExecContext(ctx, query,
			app.ID, app.JobID, app.Status, app.Notes, app.CreatedAt)
		if err != nil {
			return fmt.Errorf("Create: ExecContext: %w", err)
		}
		return nil
	})
}

func (repo *ApplicationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.Status) error {
	if !status.Valid() {
		return retry.Permanent(fmt.Errorf("%w: unknown status %q", entity.ErrInvalidInput, status))
	}
	const query = `
UPDATE applications
SET status = $1, updated_at = now()
WHERE id = $2
`
	return repo.exec.Run(ctx, repo.policy, BreakerKey, func(ctx context.Context) error {
		res, err := repo.db.ExecContext(ctx, query, status, id)
		if err != nil {
			return fmt.Errorf("UpdateStatus: ExecContext: %w", err)
		}
		return checkAffected(res, "UpdateStatus")
	})
}

func (repo *ApplicationRepo) SetScore(ctx context.Context, id uuid.UUID, score entity.MatchScore) error {
	if score.Score < 0 || score.Score > 100 {
		return retry.Permanent(fmt.Errorf("%w: score %d out of range", entity.ErrInvalidInput, score.Score))
	}
	const query = `
UPDATE applications
SET score = $1, score_rationale = $2, scored_at = $3, updated_at = now()
WHERE id = $4
`
	return repo.exec.Run(ctx, repo.policy, BreakerKey, func(ctx context.Context) error {
		res, err := repo.db.ExecContext(ctx, query, score.Score, score.Rationale, score.ScoredAt, id)
		if err != nil {
			return fmt.Errorf("SetScore: ExecContext: %w", err)
		}
		return checkAffected(res, "SetScore")
	})
}

func (repo *ApplicationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM applications WHERE id = $1`
	return repo.exec.Run(ctx, repo.policy, BreakerKey, func(ctx context.Context) error {
		res, err := repo.db.ExecContext(ctx, query, id)
		if err != nil {
			return fmt.Errorf("Delete: ExecContext: %w", err)
		}
		return checkAffected(res, "Delete")
	})
}

// checkAffected maps zero-row updates to ErrNotFound. Not found is a
// permanent condition, so it must not burn retry attempts.
func checkAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: RowsAffected: %w", op, err)
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func scanScore(score sql.NullInt64, rationale sql.NullString, scoredAt sql.NullTime) *entity.MatchScore {
	if !score.Valid {
		return nil
	}
	return &entity.MatchScore{
		Score:     int(score.Int64),
		Rationale: rationale.String,
		ScoredAt:  scoredAt.Time,
	}
}
