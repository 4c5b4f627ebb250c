// Package retry re-runs database operations that fail for transient reasons.
//
// A Classifier decides whether an error is worth another attempt and a Backoff
// decides how long to wait before it. The Executor combines the two:
//
//	exec := retry.NewExecutor(retry.NewClassifier(), retry.NewBackoff(3))
//	err := exec.Do(ctx, func(ctx context.Context) error {
//	    return layer.CreateFeature(ctx, rec)
//	})
//
// Connection setup and feature inserts both go through an Executor, so a
// server restart or a deadlock on the mosaic table costs a pause rather than
// the whole load.
package retry
