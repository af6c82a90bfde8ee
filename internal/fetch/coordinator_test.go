package fetch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fakeFetch(body string, delay time.Duration, concurrent, maxConcurrent *int64) FetchFunc {
	return func(ctx context.Context, domain, path string) (io.ReadCloser, error) {
		cur := atomic.AddInt64(concurrent, 1)
		defer atomic.AddInt64(concurrent, -1)
		for {
			prev := atomic.LoadInt64(maxConcurrent)
			if cur <= prev || atomic.CompareAndSwapInt64(maxConcurrent, prev, cur) {
				break
			}
		}
		time.Sleep(delay)
		return io.NopCloser(strings.NewReader(body)), nil
	}
}

func TestCoordinatorBoundsConcurrency(t *testing.T) {
	var concurrent, maxConcurrent int64
	c := NewCoordinator(2, fakeFetch("ok", 20*time.Millisecond, &concurrent, &maxConcurrent))

	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		i := i
		go func() {
			rc, err := c.Get(context.Background(), "example.com", fmt.Sprintf("/tile/%d", i))
			if err == nil {
				rc.Close()
			}
			results <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-results)
	}
	require.LessOrEqual(t, atomic.LoadInt64(&maxConcurrent), int64(2))
}

func TestCoordinatorGetReturnsBody(t *testing.T) {
	var concurrent, maxConcurrent int64
	c := NewCoordinator(4, fakeFetch("tile-data", 0, &concurrent, &maxConcurrent))

	rc, err := c.Get(context.Background(), "example.com", "/tile/1")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "tile-data", string(data))
}

func TestCoordinatorGetRespectsContextCancellation(t *testing.T) {
	var concurrent, maxConcurrent int64
	c := NewCoordinator(1, fakeFetch("ok", 50*time.Millisecond, &concurrent, &maxConcurrent))

	// Saturate the single slot with a slow request, then issue a second
	// request on an already-cancelled context: it must return immediately
	// with the context's error rather than wait in queue.
	go func() {
		rc, err := c.Get(context.Background(), "example.com", "/tile/slow")
		if err == nil {
			rc.Close()
		}
	}()
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx, "example.com", "/tile/cancelled")
	require.ErrorIs(t, err, context.Canceled)
}

func TestCoordinatorCancelDrainsPending(t *testing.T) {
	var concurrent, maxConcurrent int64
	c := NewCoordinator(1, fakeFetch("ok", 30*time.Millisecond, &concurrent, &maxConcurrent))

	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		i := i
		go func() {
			_, err := c.Get(context.Background(), "example.com", fmt.Sprintf("/tile/%d", i))
			errs <- err
		}()
	}
	time.Sleep(5 * time.Millisecond)
	c.Cancel()

	sawErr := false
	for i := 0; i < 3; i++ {
		if err := <-errs; err != nil {
			sawErr = true
		}
	}
	require.True(t, sawErr)
}
