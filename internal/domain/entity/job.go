// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as JobPosting and Application, along
// with their validation rules and domain-specific errors.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// JobPosting represents a job listing retrieved from an external job board.
type JobPosting struct {
	ID       uuid.UUID
	Title    string
	Company  string
	Location string
	URL      string
	PostedAt time.Time
}

// Validate checks that the posting has the fields required before it can be
// stored or scored.
func (j *JobPosting) Validate() error {
	if j.Title == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if j.Company == "" {
		return &ValidationError{Field: "company", Message: "is required"}
	}
	if j.URL == "" {
		return &ValidationError{Field: "url", Message: "is required"}
	}
	return nil
}
