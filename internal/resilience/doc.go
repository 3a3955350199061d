// Package resilience provides reliability and fault tolerance patterns for
// the application. It shields callers from flaky databases and third-party
// job-board and AI-scoring APIs through three composable pieces:
//
//   - A bounded resource pool with blocking acquisition and safe disposal
//   - A TTL keyed cache over normalized request fingerprints
//   - A retry executor with classified failures, backoff with jitter, and
//     per-operation circuit breakers
//
// Typical composition, leaves first: a caller asks the cache for a result; on
// miss it runs the operation through the retry executor (the operation may
// acquire a pooled resource internally); on success the result is cached.
//
// Usage Example:
//
//	executor := retry.NewExecutor(retry.WithBreakers(registry))
//	err := executor.Run(ctx, retry.JobBoardPolicy(), "job-board", func(ctx context.Context) error {
//	    return callJobBoard(ctx)
//	})
package resilience
