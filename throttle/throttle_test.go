package throttle

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bearjaws/modelfusion/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestOff(t *testing.T) {
	release, err := Off().Acquire(context.Background())
	require.NoError(t, err)
	release()
	release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Off().Acquire(ctx)
	assert.True(t, api.IsAbort(err))
}

func TestMaxConcurrency_Bounds(t *testing.T) {
	l := MaxConcurrency(2)
	assert.Equal(t, 2, l.Max())

	var current, peak atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 0, l.InFlight())
}

func TestMaxConcurrency_ReleaseIsIdempotent(t *testing.T) {
	l := MaxConcurrency(1)
	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, l.InFlight())

	release()
	release()
	assert.Equal(t, 0, l.InFlight())

	r1, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer r1()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	require.Error(t, err, "a double release must not free a second slot")
	assert.True(t, api.IsAbort(err))
}

func TestMaxConcurrency_CancelWhileWaiting(t *testing.T) {
	l := MaxConcurrency(1)
	release, err := l.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := l.Acquire(ctx)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		var ae *api.AbortError
		assert.ErrorAs(t, err, &ae)
	case <-time.After(time.Second):
		t.Fatal("acquire did not unblock on cancellation")
	}

	release()
	assert.Equal(t, 0, l.InFlight())
}

func TestMaxConcurrency_FIFO(t *testing.T) {
	l := MaxConcurrency(1)
	hold, err := l.Acquire(context.Background())
	require.NoError(t, err)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			release()
		}()
		// let each waiter queue before the next one arrives
		time.Sleep(10 * time.Millisecond)
	}

	hold()
	wg.Wait()
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestMaxConcurrency_PanicsOnInvalidBound(t *testing.T) {
	assert.Panics(t, func() { MaxConcurrency(0) })
}

func TestRate(t *testing.T) {
	r := Rate(rate.Every(20*time.Millisecond), 1)

	start := time.Now()
	for range 3 {
		release, err := r.Acquire(context.Background())
		require.NoError(t, err)
		release()
	}
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestRate_Cancelled(t *testing.T) {
	r := Rate(rate.Every(time.Hour), 1)
	_, err := r.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Acquire(ctx)
	assert.True(t, api.IsAbort(err))
}

func TestRate_DeadlineBeforeNextToken(t *testing.T) {
	r := Rate(rate.Every(10*time.Second), 1)
	_, err := r.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = r.Acquire(ctx)
	require.Error(t, err)
	assert.True(t, api.IsAbort(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond, "waits until the deadline")
}

func TestRate_CancelledWaitReturnsToken(t *testing.T) {
	r := Rate(rate.Every(100*time.Millisecond), 1)
	_, err := r.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = r.Acquire(ctx)
	require.True(t, api.IsAbort(err))

	start := time.Now()
	release, err := r.Acquire(context.Background())
	require.NoError(t, err)
	release()
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestShared(t *testing.T) {
	var created int
	create := func() Policy {
		created++
		return MaxConcurrency(3)
	}

	a := Shared("throttle-test", create)
	b := Shared("throttle-test", create)
	assert.Same(t, a.(*Limiter), b.(*Limiter))
	assert.Equal(t, 1, created)
	assert.Contains(t, SharedNames(), "throttle-test")
}
