// Package worker bounds how many statement analyses run at once and gives
// each one a deadline.
package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// Pool runs jobs with bounded concurrency.
type Pool struct {
	sem     *semaphore.Weighted
	size    int
	timeout time.Duration
}

// NewPool allows size concurrent jobs, each limited to timeout (0 means no
// limit beyond the caller's context).
func NewPool(size int, timeout time.Duration) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size, timeout: timeout}
}

// Size returns the concurrency limit.
func (p *Pool) Size() int { return p.size }

// Do waits for a free slot, then runs fn with a context carrying the job
// deadline. Waiting respects ctx; if ctx ends first, fn never runs.
func Do[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, fmt.Errorf("waiting for worker: %w", err)
	}
	defer p.sem.Release(1)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return fn(ctx)
}
