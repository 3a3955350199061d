package scoring

import (
	"context"
	"strings"
	"testing"

	"applytrack/internal/domain/entity"
	"applytrack/internal/resilience/retry"
)

func testJob() *entity.JobPosting {
	return &entity.JobPosting{
		Title:    "Backend Engineer",
		Company:  "Acme",
		Location: "Remote",
		URL:      "https://example.com/jobs/1",
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{
			name: "bare object",
			raw:  `{"score": 85, "rationale": "strong overlap"}`,
			want: 85,
		},
		{
			name: "wrapped in prose",
			raw:  "Here is my assessment:\n{\"score\": 40, \"rationale\": \"junior profile\"}\nLet me know if you need more detail.",
			want: 40,
		},
		{
			name:    "no JSON",
			raw:     "I cannot score this posting.",
			wantErr: true,
		},
		{
			name:    "out of range",
			raw:     `{"score": 150, "rationale": "overflow"}`,
			wantErr: true,
		},
		{
			name:    "malformed JSON",
			raw:     `{"score": "high"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScore(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseScore: %v", err)
			}
			if got.Score != tt.want {
				t.Errorf("score = %d, want %d", got.Score, tt.want)
			}
			if got.ScoredAt.IsZero() {
				t.Error("ScoredAt not set")
			}
		})
	}
}

func TestBuildPromptTruncatesProfile(t *testing.T) {
	long := strings.Repeat("x", maxProfileChars+500)
	prompt := buildPrompt(testJob(), long)
	if len(prompt) > maxProfileChars+1000 {
		t.Errorf("prompt length = %d, expected truncation", len(prompt))
	}
	if !strings.Contains(prompt, "Backend Engineer") {
		t.Error("prompt missing job title")
	}
	if !strings.Contains(prompt, `"score"`) {
		t.Error("prompt missing response format instruction")
	}
}

func TestNoopScore(t *testing.T) {
	score, err := NewNoop().Score(context.Background(), testJob(), "profile")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if score.Score != 50 {
		t.Errorf("score = %d, want neutral 50", score.Score)
	}
}

func TestNewFromEnvFallsBackToNoop(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	scorer := NewFromEnv(retry.NewExecutor(), nil)
	if _, ok := scorer.(*Noop); !ok {
		t.Fatalf("scorer = %T, want *Noop", scorer)
	}
}

func TestNewFromEnvPrefersClaude(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	scorer := NewFromEnv(retry.NewExecutor(), nil)
	if _, ok := scorer.(*Claude); !ok {
		t.Fatalf("scorer = %T, want *Claude", scorer)
	}
}
