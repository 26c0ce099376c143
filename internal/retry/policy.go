package retry

import (
	"context"
	"time"
)

// Policy runs an operation until it succeeds, fails permanently, or runs out
// of retries.
type Policy struct {
	classifier Classifier
	backoff    *Backoff
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewPolicy panics if either argument is nil.
func NewPolicy(classifier Classifier, backoff *Backoff) *Policy {
	if classifier == nil {
		panic("retry: nil classifier")
	}
	if backoff == nil {
		panic("retry: nil backoff")
	}
	return &Policy{classifier: classifier, backoff: backoff}
}

// WithOnRetry returns a copy of the policy that calls fn before each wait.
func (p *Policy) WithOnRetry(fn func(attempt int, err error, delay time.Duration)) *Policy {
	clone := *p
	clone.onRetry = fn
	return &clone
}

// Do returns nil on success, the first non-transient error, the last error
// once retries are exhausted, or the context error if ctx ends while waiting.
func (p *Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	err := op(ctx)
	limit := p.backoff.MaxRetries()

	for attempt := 0; err != nil && p.classifier.IsTransient(err) && (limit < 0 || attempt < limit); attempt++ {
		delay := p.backoff.Delay(attempt)
		if p.onRetry != nil {
			p.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = op(ctx)
	}
	return err
}
