package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

var errDownstream = errors.New("downstream unavailable")

func TestNew(t *testing.T) {
	cfg := Config{
		Name:             "test-circuit",
		FailureThreshold: 2,
		RecoveryTimeout:  20 * time.Second,
		HalfOpenRequests: 1,
	}

	b := New(cfg)

	if b == nil {
		t.Fatal("expected breaker, got nil")
	}
	if b.Name() != "test-circuit" {
		t.Errorf("expected name='test-circuit', got %q", b.Name())
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("expected initial state=Closed, got %v", b.State())
	}
}

func TestBreaker_Execute_Success(t *testing.T) {
	b := New(DefaultConfig("test-circuit"))

	err := b.Execute(func() error { return nil })

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("expected state=Closed after success, got %v", b.State())
	}
}

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	b := New(Config{
		Name:             "trip-test",
		FailureThreshold: 2,
		RecoveryTimeout:  time.Minute,
	})

	for i := 0; i < 2; i++ {
		if err := b.Execute(func() error { return errDownstream }); !errors.Is(err, errDownstream) {
			t.Fatalf("failure %d: expected downstream error, got %v", i+1, err)
		}
	}

	if !b.IsOpen() {
		t.Fatalf("expected open circuit after 2 consecutive failures, state=%v", b.State())
	}

	// While open, the operation must not be invoked.
	invoked := false
	err := b.Execute(func() error {
		invoked = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if invoked {
		t.Error("operation must not be invoked while circuit is open")
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New(Config{
		Name:             "reset-test",
		FailureThreshold: 2,
		RecoveryTimeout:  time.Minute,
	})

	// failure, success, failure: never two consecutive failures.
	_ = b.Execute(func() error { return errDownstream })
	_ = b.Execute(func() error { return nil })
	_ = b.Execute(func() error { return errDownstream })

	if b.IsOpen() {
		t.Error("circuit must stay closed when failures are not consecutive")
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	const recovery = 50 * time.Millisecond
	b := New(Config{
		Name:             "recovery-test",
		FailureThreshold: 2,
		RecoveryTimeout:  recovery,
	})

	for i := 0; i < 2; i++ {
		_ = b.Execute(func() error { return errDownstream })
	}
	if !b.IsOpen() {
		t.Fatal("expected open circuit")
	}

	time.Sleep(recovery + 20*time.Millisecond)

	// Trial call after the recovery timeout is attempted and, on success,
	// closes the circuit.
	invoked := false
	err := b.Execute(func() error {
		invoked = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected trial call to succeed, got %v", err)
	}
	if !invoked {
		t.Fatal("trial call was not invoked after recovery timeout")
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("expected Closed after successful trial, got %v", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	const recovery = 50 * time.Millisecond
	b := New(Config{
		Name:             "reopen-test",
		FailureThreshold: 2,
		RecoveryTimeout:  recovery,
	})

	for i := 0; i < 2; i++ {
		_ = b.Execute(func() error { return errDownstream })
	}
	time.Sleep(recovery + 20*time.Millisecond)

	// Failed trial re-opens the circuit and restarts the recovery timer.
	if err := b.Execute(func() error { return errDownstream }); !errors.Is(err, errDownstream) {
		t.Fatalf("expected trial failure to propagate, got %v", err)
	}
	if !b.IsOpen() {
		t.Fatalf("expected re-opened circuit after failed trial, state=%v", b.State())
	}

	// Still inside the restarted recovery window: calls are rejected.
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen inside restarted recovery window, got %v", err)
	}
}

func TestBreaker_IsFailureClassifier(t *testing.T) {
	permanent := errors.New("validation failed")
	b := New(Config{
		Name:             "classified-test",
		FailureThreshold: 2,
		RecoveryTimeout:  time.Minute,
		IsFailure: func(err error) bool {
			return !errors.Is(err, permanent)
		},
	})

	// Permanent failures pass through but do not count toward the threshold.
	for i := 0; i < 5; i++ {
		if err := b.Execute(func() error { return permanent }); !errors.Is(err, permanent) {
			t.Fatalf("expected permanent error to propagate, got %v", err)
		}
	}
	if b.IsOpen() {
		t.Error("permanent failures must not trip a breaker with a classifier installed")
	}

	// Transient failures still do.
	for i := 0; i < 2; i++ {
		_ = b.Execute(func() error { return errDownstream })
	}
	if !b.IsOpen() {
		t.Error("transient failures must trip the breaker")
	}
}

func TestBreaker_ClassifierRejectedErrorResetsCount(t *testing.T) {
	permanent := errors.New("validation failed")
	b := New(Config{
		Name:             "interleave-test",
		FailureThreshold: 2,
		RecoveryTimeout:  time.Minute,
		IsFailure: func(err error) bool {
			return !errors.Is(err, permanent)
		},
	})

	// gobreaker records a rejected error as a success, so a permanent error
	// between transient ones resets the consecutive-failure count and the
	// breaker stays closed. Documented on Config.IsFailure.
	for i := 0; i < 5; i++ {
		_ = b.Execute(func() error { return errDownstream })
		_ = b.Execute(func() error { return permanent })
	}
	if b.IsOpen() {
		t.Fatal("interleaved permanent errors reset the count; breaker must stay closed")
	}

	// Consecutive transient failures with no reset in between still trip.
	for i := 0; i < 2; i++ {
		_ = b.Execute(func() error { return errDownstream })
	}
	if !b.IsOpen() {
		t.Fatalf("expected open circuit after consecutive transient failures, state=%v", b.State())
	}
}

func TestRegistry_LazyCreation(t *testing.T) {
	r := NewRegistry(DefaultConfig(""))

	b1 := r.Get("job-board")
	b2 := r.Get("job-board")
	if b1 != b2 {
		t.Error("expected the same breaker instance for one key")
	}
	if b1.Name() != "job-board" {
		t.Errorf("expected breaker named after its key, got %q", b1.Name())
	}

	other := r.Get("database")
	if other == b1 {
		t.Error("expected distinct breakers per key")
	}
}

func TestRegistry_Configure(t *testing.T) {
	r := NewRegistry(DefaultConfig(""))
	r.Configure("fragile", Config{FailureThreshold: 1, RecoveryTimeout: time.Minute})

	b := r.Get("fragile")
	_ = b.Execute(func() error { return errDownstream })

	if !b.IsOpen() {
		t.Error("expected configured threshold of 1 to open the circuit after one failure")
	}
}

func TestRegistry_States(t *testing.T) {
	r := NewRegistry(DefaultConfig(""))
	r.Get("a")
	r.Get("b")

	states := r.States()
	if len(states) != 2 {
		t.Fatalf("expected 2 breakers, got %d", len(states))
	}
	if states["a"] != gobreaker.StateClosed.String() {
		t.Errorf("expected closed state for fresh breaker, got %q", states["a"])
	}
}
