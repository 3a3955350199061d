package retry

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"applytrack/internal/resilience/circuitbreaker"
)

// fakeSleeper records requested delays instead of waiting them out.
type fakeSleeper struct {
	delays []time.Duration
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func fastPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
		Strategy:     StrategyExponential,
	}
}

func TestRun_Success(t *testing.T) {
	e := NewExecutor(WithSleeper(&fakeSleeper{}))

	attempts := 0
	err := e.Run(context.Background(), fastPolicy(), "", func(ctx context.Context) error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestRun_SuccessAfterTransientFailures(t *testing.T) {
	e := NewExecutor(WithSleeper(&fakeSleeper{}))

	attempts := 0
	err := e.Run(context.Background(), fastPolicy(), "", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &HTTPError{StatusCode: 500, Message: "Server Error"}
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected exactly 3 invocations, got %d", attempts)
	}
}

func TestRun_Exhaustion(t *testing.T) {
	e := NewExecutor(WithSleeper(&fakeSleeper{}))

	attempts := 0
	testErr := &HTTPError{StatusCode: 503, Message: "Service Unavailable"}
	err := e.Run(context.Background(), fastPolicy(), "", func(ctx context.Context) error {
		attempts++
		return testErr
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if !errors.Is(err, testErr) {
		t.Error("expected last failure to be preserved in the returned error")
	}
}

type fakeRecorder struct {
	attempts []string
}

func (r *fakeRecorder) RecordAttempt(operation, outcome string) {
	r.attempts = append(r.attempts, operation+":"+outcome)
}

func TestRun_RecorderOutcomes(t *testing.T) {
	rec := &fakeRecorder{}
	e := NewExecutor(WithSleeper(&fakeSleeper{}), WithRecorder(rec))

	calls := 0
	err := e.Run(context.Background(), fastPolicy(), "upstream", func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return &HTTPError{StatusCode: 503, Message: "Service Unavailable"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"upstream:retry", "upstream:success"}
	if len(rec.attempts) != len(want) {
		t.Fatalf("expected %d recorded attempts, got %v", len(want), rec.attempts)
	}
	for i, w := range want {
		if rec.attempts[i] != w {
			t.Errorf("attempt %d = %q, want %q", i, rec.attempts[i], w)
		}
	}
}

func TestRun_RecorderExhaustion(t *testing.T) {
	rec := &fakeRecorder{}
	e := NewExecutor(WithSleeper(&fakeSleeper{}), WithRecorder(rec))

	err := e.Run(context.Background(), fastPolicy(), "upstream", func(ctx context.Context) error {
		return &HTTPError{StatusCode: 502, Message: "Bad Gateway"}
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	last := rec.attempts[len(rec.attempts)-1]
	if last != "upstream:exhausted" {
		t.Errorf("last recorded outcome = %q, want %q", last, "upstream:exhausted")
	}
}

func TestRun_NonRetryableShortCircuit(t *testing.T) {
	e := NewExecutor(WithSleeper(&fakeSleeper{}))

	policy := fastPolicy()
	policy.MaxAttempts = 5

	attempts := 0
	testErr := Permanent(errors.New("validation failed"))
	err := e.Run(context.Background(), policy, "", func(ctx context.Context) error {
		attempts++
		return testErr
	})

	if attempts != 1 {
		t.Errorf("expected exactly one invocation for a permanent failure, got %d", attempts)
	}
	if err != testErr {
		t.Errorf("expected the failure to propagate verbatim, got %v", err)
	}
}

func TestRun_BackoffValues(t *testing.T) {
	sleeper := &fakeSleeper{}
	e := NewExecutor(WithSleeper(sleeper))

	policy := Policy{
		MaxAttempts:  8,
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		Strategy:     StrategyExponential,
		Jitter:       false,
	}

	_ = e.Run(context.Background(), policy, "", func(ctx context.Context) error {
		return &HTTPError{StatusCode: 500, Message: "boom"}
	})

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
		60 * time.Second, // capped
	}
	if len(sleeper.delays) != len(want) {
		t.Fatalf("expected %d delays, got %d (%v)", len(want), len(sleeper.delays), sleeper.delays)
	}
	for i, d := range want {
		if sleeper.delays[i] != d {
			t.Errorf("delay after attempt %d: expected %v, got %v", i, d, sleeper.delays[i])
		}
	}
}

func TestPolicy_Delay(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{
			name:    "exponential attempt 0",
			policy:  Policy{InitialDelay: time.Second, MaxDelay: time.Minute, Multiplier: 2.0, Strategy: StrategyExponential},
			attempt: 0,
			want:    time.Second,
		},
		{
			name:    "exponential attempt 3",
			policy:  Policy{InitialDelay: time.Second, MaxDelay: time.Minute, Multiplier: 2.0, Strategy: StrategyExponential},
			attempt: 3,
			want:    8 * time.Second,
		},
		{
			name:    "exponential capped",
			policy:  Policy{InitialDelay: time.Second, MaxDelay: time.Minute, Multiplier: 2.0, Strategy: StrategyExponential},
			attempt: 10,
			want:    time.Minute,
		},
		{
			name:    "linear attempt 0",
			policy:  Policy{InitialDelay: 2 * time.Second, MaxDelay: time.Minute, Strategy: StrategyLinear},
			attempt: 0,
			want:    2 * time.Second,
		},
		{
			name:    "linear attempt 2",
			policy:  Policy{InitialDelay: 2 * time.Second, MaxDelay: time.Minute, Strategy: StrategyLinear},
			attempt: 2,
			want:    6 * time.Second,
		},
		{
			name:    "fixed",
			policy:  Policy{InitialDelay: 3 * time.Second, MaxDelay: time.Minute, Strategy: StrategyFixed},
			attempt: 5,
			want:    3 * time.Second,
		},
		{
			name:    "immediate",
			policy:  Policy{InitialDelay: 3 * time.Second, MaxDelay: time.Minute, Strategy: StrategyImmediate},
			attempt: 2,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Delay(tt.attempt); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestRun_RateLimitSuggestedWait(t *testing.T) {
	sleeper := &fakeSleeper{}
	e := NewExecutor(WithSleeper(sleeper))

	policy := Policy{
		MaxAttempts:  2,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		Strategy:     StrategyExponential,
	}

	attempts := 0
	_ = e.Run(context.Background(), policy, "", func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return &RateLimitError{RetryAfter: 5 * time.Second}
		}
		return nil
	})

	if len(sleeper.delays) != 1 {
		t.Fatalf("expected 1 delay, got %d", len(sleeper.delays))
	}
	// The suggested wait exceeds the computed backoff and must win.
	if sleeper.delays[0] != 5*time.Second {
		t.Errorf("expected suggested wait of 5s to floor the delay, got %v", sleeper.delays[0])
	}
}

func TestRun_ContextCanceledDuringDelay(t *testing.T) {
	e := NewExecutor() // real sleeper

	policy := Policy{
		MaxAttempts:  5,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     200 * time.Millisecond,
		Multiplier:   2.0,
		Strategy:     StrategyExponential,
	}

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := e.Run(ctx, policy, "", func(ctx context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return &HTTPError{StatusCode: 500, Message: "Server Error"}
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if attempts < 2 {
		t.Errorf("expected at least 2 attempts before cancel, got %d", attempts)
	}
}

func TestRun_BreakerFailsFast(t *testing.T) {
	reg := circuitbreaker.NewRegistry(circuitbreaker.Config{
		FailureThreshold: 2,
		RecoveryTimeout:  time.Minute,
	})
	e := NewExecutor(WithSleeper(&fakeSleeper{}), WithBreakers(reg))

	policy := fastPolicy()
	policy.MaxAttempts = 5

	invocations := 0
	err := e.Run(context.Background(), policy, "flaky-api", func(ctx context.Context) error {
		invocations++
		return &HTTPError{StatusCode: 502, Message: "Bad Gateway"}
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	// Two invocations trip the breaker; the third attempt is rejected with
	// ErrCircuitOpen, which is non-retryable and aborts the loop.
	if invocations != 2 {
		t.Errorf("expected the breaker to stop invocations at 2, got %d", invocations)
	}
	if !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestRun_CustomClassifier(t *testing.T) {
	e := NewExecutor(WithSleeper(&fakeSleeper{}))

	policy := fastPolicy()
	policy.Classifier = func(err error) bool {
		return err.Error() == "worth retrying"
	}

	attempts := 0
	_ = e.Run(context.Background(), policy, "", func(ctx context.Context) error {
		attempts++
		return errors.New("worth retrying")
	})
	if attempts != 3 {
		t.Errorf("expected classifier to allow retries, got %d attempts", attempts)
	}

	attempts = 0
	_ = e.Run(context.Background(), policy, "", func(ctx context.Context) error {
		attempts++
		return errors.New("hopeless")
	})
	if attempts != 1 {
		t.Errorf("expected classifier to abort after 1 attempt, got %d", attempts)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{
			name:      "nil error",
			err:       nil,
			retryable: false,
		},
		{
			name:      "context canceled",
			err:       context.Canceled,
			retryable: false,
		},
		{
			name:      "context deadline exceeded",
			err:       context.DeadlineExceeded,
			retryable: false,
		},
		{
			name:      "circuit open",
			err:       circuitbreaker.ErrCircuitOpen,
			retryable: false,
		},
		{
			name:      "HTTP 500 error",
			err:       &HTTPError{StatusCode: 500, Message: "Internal Server Error"},
			retryable: true,
		},
		{
			name:      "HTTP 429 error",
			err:       &HTTPError{StatusCode: 429, Message: "Too Many Requests"},
			retryable: true,
		},
		{
			name:      "HTTP 408 error",
			err:       &HTTPError{StatusCode: 408, Message: "Request Timeout"},
			retryable: true,
		},
		{
			name:      "HTTP 400 error",
			err:       &HTTPError{StatusCode: 400, Message: "Bad Request"},
			retryable: false,
		},
		{
			name:      "HTTP 404 error",
			err:       &HTTPError{StatusCode: 404, Message: "Not Found"},
			retryable: false,
		},
		{
			name:      "rate limit push-back",
			err:       &RateLimitError{RetryAfter: time.Second},
			retryable: true,
		},
		{
			name:      "ECONNREFUSED",
			err:       syscall.ECONNREFUSED,
			retryable: true,
		},
		{
			name:      "ECONNRESET",
			err:       syscall.ECONNRESET,
			retryable: true,
		},
		{
			name:      "generic error",
			err:       errors.New("some error"),
			retryable: false,
		},
		{
			name:      "transient-marked generic error",
			err:       Transient(errors.New("some error")),
			retryable: true,
		},
		{
			name:      "permanent-marked HTTP 500",
			err:       Permanent(&HTTPError{StatusCode: 500, Message: "known bad request shape"}),
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsRetryable(tt.err)
			if result != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", result, tt.retryable)
			}
		})
	}
}

func TestTransientPermanent_NilPassthrough(t *testing.T) {
	if Transient(nil) != nil {
		t.Error("Transient(nil) must be nil")
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) must be nil")
	}
}

func TestAddJitter_Symmetric(t *testing.T) {
	duration := 100 * time.Millisecond

	results := make(map[time.Duration]bool)
	for i := 0; i < 50; i++ {
		result := addJitter(duration, jitterFraction)

		min := time.Duration(float64(duration) * (1 - jitterFraction))
		max := time.Duration(float64(duration) * (1 + jitterFraction))
		if result < min || result > max {
			t.Errorf("expected result in [%v, %v], got %v", min, max, result)
		}
		results[result] = true
	}

	if len(results) < 2 {
		t.Error("expected jitter to produce varied results")
	}
}

func TestAddJitter_ZeroFraction(t *testing.T) {
	duration := 100 * time.Millisecond
	if result := addJitter(duration, 0); result != duration {
		t.Errorf("expected no jitter with fraction=0, got %v", result)
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	if p.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts=3, got %d", p.MaxAttempts)
	}
	if p.InitialDelay != 1*time.Second {
		t.Errorf("expected InitialDelay=1s, got %v", p.InitialDelay)
	}
	if p.Strategy != StrategyExponential {
		t.Errorf("expected exponential strategy, got %v", p.Strategy)
	}
	if !p.Jitter {
		t.Error("expected jitter enabled by default")
	}
}

func TestDBPolicy(t *testing.T) {
	p := DBPolicy()

	if p.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts=3, got %d", p.MaxAttempts)
	}
	if p.InitialDelay != 100*time.Millisecond {
		t.Errorf("expected InitialDelay=100ms, got %v", p.InitialDelay)
	}
}

func TestJobBoardPolicy(t *testing.T) {
	p := JobBoardPolicy()

	if p.MaxAttempts != 5 {
		t.Errorf("expected MaxAttempts=5, got %d", p.MaxAttempts)
	}
}

func TestHTTPError_Error(t *testing.T) {
	err := &HTTPError{StatusCode: 500, Message: "Internal Server Error"}
	expected := "HTTP 500: Internal Server Error"

	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}
