// Package scoring provides AI-powered match scoring between a candidate
// profile and a job posting. It includes adapters for Claude (Anthropic) and
// OpenAI APIs with retry and circuit breaker protection, plus a no-op
// fallback for deployments without an API key.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"applytrack/internal/domain/entity"
)

// Scorer computes how well a candidate profile matches a job posting.
type Scorer interface {
	Score(ctx context.Context, job *entity.JobPosting, profile string) (*entity.MatchScore, error)
}

// maxProfileChars bounds the profile text sent to the model. Longer profiles
// are truncated to keep well under provider token limits.
const maxProfileChars = 8000

// buildPrompt renders the scoring instruction for either provider. The model
// is asked for a strict JSON object so the response can be parsed without
// provider-specific handling.
func buildPrompt(job *entity.JobPosting, profile string) string {
	if len(profile) > maxProfileChars {
		profile = profile[:maxProfileChars] + "..."
	}
	var b strings.Builder
	b.WriteString("You are a recruiting assistant. Rate how well the candidate profile matches the job posting.\n")
	b.WriteString("Respond with ONLY a JSON object of the form {\"score\": <integer 0-100>, \"rationale\": \"<one sentence>\"}.\n\n")
	fmt.Fprintf(&b, "Job title: %s\nCompany: %s\nLocation: %s\n\n", job.Title, job.Company, job.Location)
	b.WriteString("Candidate profile:\n")
	b.WriteString(profile)
	return b.String()
}

type scorePayload struct {
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

// parseScore extracts the JSON score object from a model response. Models
// occasionally wrap the object in prose, so parsing starts at the first
// brace and ends at the last.
func parseScore(raw string) (*entity.MatchScore, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var payload scorePayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("decode score response: %w", err)
	}
	if payload.Score < 0 || payload.Score > 100 {
		return nil, fmt.Errorf("score %d out of range [0, 100]", payload.Score)
	}
	return &entity.MatchScore{
		Score:     payload.Score,
		Rationale: payload.Rationale,
		ScoredAt:  time.Now().UTC(),
	}, nil
}

// Noop is a scorer that returns a neutral score without calling any API.
// Used in development and in deployments without an AI provider configured.
type Noop struct{}

// NewNoop creates a new Noop scorer.
func NewNoop() *Noop {
	return &Noop{}
}

// Score returns a fixed neutral score.
func (n *Noop) Score(_ context.Context, _ *entity.JobPosting, _ string) (*entity.MatchScore, error) {
	return &entity.MatchScore{
		Score:     50,
		Rationale: "scoring disabled: no AI provider configured",
		ScoredAt:  time.Now().UTC(),
	}, nil
}
