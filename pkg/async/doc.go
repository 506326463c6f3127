// Package async runs functions in goroutines and collects their results.
//
// Run starts one function and returns a Future. Map fans a slice of inputs
// out over a bounded number of goroutines and settles every result, so a
// single failure never hides the outcome of its siblings:
//
//	results, err := async.Map(ctx, jobs, 3, func(ctx context.Context, j Job) (Summary, error) {
//	    return deliver(ctx, j)
//	})
//	// results[i] belongs to jobs[i]; err joins every non-nil error.
//
// A context cancelled before a function starts completes its Future
// with ctx.Err() without calling the function.
package async
