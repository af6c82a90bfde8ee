package fetch

import (
	"context"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// emptyMVTTile is a minimal valid (but empty) vector-tile body: decoding it
// yields zero layers and therefore zero polylines, which is all these tests
// need to exercise fetch/dedup behaviour independent of mvt decoding itself.
var emptyMVTTile = []byte{}

func TestMVTLoaderDedupsConcurrentRequests(t *testing.T) {
	var fetchCount int64
	fetchFn := func(ctx context.Context, domain, path string) (io.ReadCloser, error) {
		atomic.AddInt64(&fetchCount, 1)
		time.Sleep(20 * time.Millisecond)
		return io.NopCloser(strings.NewReader(string(emptyMVTTile))), nil
	}
	coord := NewCoordinator(4, fetchFn)
	loader := NewMVTLoader(coord, "tiles.example.com")

	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := loader.Load(context.Background(), "/14/8600/5900.mvt")
			results <- err
		}()
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-results)
	}
	require.Equal(t, int64(1), atomic.LoadInt64(&fetchCount))
}

func TestMVTLoaderDistinctPathsFetchIndependently(t *testing.T) {
	var fetchCount int64
	fetchFn := func(ctx context.Context, domain, path string) (io.ReadCloser, error) {
		atomic.AddInt64(&fetchCount, 1)
		return io.NopCloser(strings.NewReader(string(emptyMVTTile))), nil
	}
	coord := NewCoordinator(4, fetchFn)
	loader := NewMVTLoader(coord, "tiles.example.com")

	_, err := loader.Load(context.Background(), "/14/8600/5900.mvt")
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), "/14/8601/5900.mvt")
	require.NoError(t, err)

	require.Equal(t, int64(2), atomic.LoadInt64(&fetchCount))
}
