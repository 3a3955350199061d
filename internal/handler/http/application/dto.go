// Package application provides HTTP handlers for application tracking
// endpoints: creating, listing, staging and scoring tracked applications.
package application

import (
	"time"

	"applytrack/internal/domain/entity"
)

// DTO represents the JSON structure for application data transfer.
type DTO struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	Score     *ScoreDTO `json:"score,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoreDTO represents the JSON structure for an AI match score.
type ScoreDTO struct {
	Score     int       `json:"score"`
	Rationale string    `json:"rationale,omitempty"`
	ScoredAt  time.Time `json:"scored_at"`
}

func toDTO(app *entity.Application) DTO {
	out := DTO{
		ID:        app.ID.String(),
		JobID:     app.JobID.String(),
		Status:    string(app.Status),
		Notes:     app.Notes,
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
	}
	if app.Score != nil {
		out.Score = &ScoreDTO{
			Score:     app.Score.Score,
			Rationale: app.Score.Rationale,
			ScoredAt:  app.Score.ScoredAt,
		}
	}
	return out
}
