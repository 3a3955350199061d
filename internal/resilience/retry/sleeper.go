package retry

import (
	"context"
	"fmt"
	"time"
)

// Sleeper is the executor's single suspension point. The backoff policy is
// computed once; only the mechanism that waits out the delay is pluggable.
// Implementations should return promptly with ctx.Err() when ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// timerSleeper suspends the calling goroutine on a timer, aborting early
// when ctx is canceled.
type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("retry aborted: %w", ctx.Err())
	}
}
