package entity

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the stage of a job application in its lifecycle.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusScreening Status = "screening"
	StatusInterview Status = "interview"
	StatusOffer     Status = "offer"
	StatusRejected  Status = "rejected"
)

// Valid reports whether s is one of the known application stages.
func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusScreening, StatusInterview, StatusOffer, StatusRejected:
		return true
	}
	return false
}

// Application represents a tracked job application.
type Application struct {
	ID        uuid.UUID
	JobID     uuid.UUID
	Status    Status
	Notes     string
	Score     *MatchScore
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MatchScore is an AI-computed fit score between a candidate profile and a
// job posting. Score is a percentage in [0, 100].
type MatchScore struct {
	Score     int
	Rationale string
	ScoredAt  time.Time
}

// Validate checks the application's invariants.
func (a *Application) Validate() error {
	if a.JobID == uuid.Nil {
		return &ValidationError{Field: "job_id", Message: "is required"}
	}
	if !a.Status.Valid() {
		return &ValidationError{Field: "status", Message: "must be one of applied, screening, interview, offer, rejected"}
	}
	if a.Score != nil && (a.Score.Score < 0 || a.Score.Score > 100) {
		return &ValidationError{Field: "score", Message: "must be between 0 and 100"}
	}
	return nil
}
