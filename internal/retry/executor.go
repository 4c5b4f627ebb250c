package retry

import (
	"context"
	"time"

	"github.com/asc1/imagemosaic-load/pkg/mosaic"
)

// Executor runs an operation until it succeeds, fails fatally, or runs out of
// retries. An Executor is safe for concurrent use.
type Executor struct {
	classifier mosaic.ErrorClassifier
	strategy   mosaic.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor panics if classifier or strategy is nil.
func NewExecutor(classifier mosaic.ErrorClassifier, strategy mosaic.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("retry: nil classifier")
	}
	if strategy == nil {
		panic("retry: nil backoff strategy")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// WithOnRetry returns a copy of e that calls fn before each wait.
func (e *Executor) WithOnRetry(fn func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = fn
	return &clone
}

// Do runs op and returns nil or the error of the last attempt.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	err := op(ctx)
	limit := e.strategy.MaxAttempts()

	for attempt := 0; err != nil && e.classifier.IsTransient(err); attempt++ {
		if limit >= 0 && attempt >= limit {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
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
