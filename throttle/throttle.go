// Package throttle gates admission to provider calls.
//
// A Policy is shared by every invocation that references it. Admission is
// requested once per attempt and released as soon as the attempt returns.
package throttle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bearjaws/modelfusion/api"
	"github.com/bearjaws/modelfusion/internal/registry"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Release returns an admission slot. Calling it more than once is a no-op.
type Release func()

// Policy admits or delays calls.
type Policy interface {
	// Acquire blocks until the call may proceed or ctx is done. On
	// cancellation it returns an *api.AbortError and no slot is held.
	Acquire(ctx context.Context) (Release, error)
}

func noop() {}

// Off admits every call immediately.
func Off() Policy {
	return off{}
}

type off struct{}

func (off) Acquire(ctx context.Context) (Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, api.NewAbortError(err)
	}
	return noop, nil
}

// Limiter is a bounded-concurrency policy.
type Limiter struct {
	max      int64
	sem      *semaphore.Weighted
	inFlight atomic.Int64
}

// MaxConcurrency admits at most n calls at the same time. Waiting calls are
// admitted in arrival order. It panics when n is not positive.
func MaxConcurrency(n int) *Limiter {
	if n <= 0 {
		panic(fmt.Sprintf("throttle: max concurrency must be positive, got %d", n))
	}
	return &Limiter{max: int64(n), sem: semaphore.NewWeighted(int64(n))}
}

func (l *Limiter) Acquire(ctx context.Context) (Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, api.NewAbortError(err)
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, api.NewAbortError(err)
	}
	l.inFlight.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.inFlight.Add(-1)
			l.sem.Release(1)
		})
	}, nil
}

// InFlight returns the number of admitted calls that have not released yet.
func (l *Limiter) InFlight() int {
	return int(l.inFlight.Load())
}

// Max returns the concurrency bound.
func (l *Limiter) Max() int {
	return int(l.max)
}

// RateLimiter admits calls at a sustained rate with bursts.
type RateLimiter struct {
	limiter *rate.Limiter
}

// Rate admits up to limit calls per second on average with bursts of burst calls.
func Rate(limit rate.Limit, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Acquire waits for a token until it is available or ctx is done, even when
// the ctx deadline falls before the next token. Tokens are consumed, so the
// release is a no-op.
func (r *RateLimiter) Acquire(ctx context.Context) (Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, api.NewAbortError(err)
	}
	res := r.limiter.Reserve()
	if !res.OK() {
		return nil, fmt.Errorf("throttle: rate limiter with burst %d admits no calls", r.limiter.Burst())
	}
	delay := res.Delay()
	if delay <= 0 {
		return noop, nil
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		res.Cancel()
		return nil, api.NewAbortError(ctx.Err())
	case <-t.C:
		return noop, nil
	}
}

var shared = registry.New[Policy]()

// Shared returns the process-wide policy registered under name, creating it
// with create on first use. Model configurations that name the same policy
// share its counters.
func Shared(name string, create func() Policy) Policy {
	p, _ := shared.GetOrCompute(name, create)
	return p
}

// SharedNames lists the registered shared policies.
func SharedNames() []string {
	return shared.Names()
}
