// Package retry re-runs store connection attempts that fail for transient
// reasons (server still starting, connection refused, too many clients).
//
// A Policy pairs an exponential Backoff with a Classifier that decides which
// errors are worth another attempt:
//
//	policy := retry.NewPolicy(retry.NewPostgresClassifier(), retry.NewBackoff(3))
//	err := policy.Do(ctx, func(ctx context.Context) error {
//	    return pool.Ping(ctx)
//	})
package retry
