// Package fetch implements the bounded, deduplicating tile-fetch
// coordinator (C8): a dispatcher that caps concurrent outstanding
// requests, plus a singleflight-deduplicated loader for MVT contour
// tiles built on top of it.
package fetch

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// FetchFunc performs one network fetch for (domain, path). Implementations
// wrap whatever transport the caller uses (HTTP client, local mock, etc).
type FetchFunc func(ctx context.Context, domain, path string) (io.ReadCloser, error)

type request struct {
	ctx      context.Context
	domain   string
	path     string
	resultCh chan result
}

type result struct {
	rc  io.ReadCloser
	err error
}

// Coordinator dispatches Get requests against a bounded number of
// concurrent in-flight fetches (MAX_REQUESTS). A single dispatcher
// goroutine pulls from the pending queue whenever capacity frees up.
type Coordinator struct {
	mu          sync.Mutex
	cond        *sync.Cond
	queue       []*request
	inFlight    int
	maxRequests int
	fetch       FetchFunc
	closed      bool
}

// NewCoordinator starts a Coordinator bounded to maxRequests concurrent
// fetches, using fn to perform each one.
func NewCoordinator(maxRequests int, fn FetchFunc) *Coordinator {
	c := &Coordinator{maxRequests: maxRequests, fetch: fn}
	c.cond = sync.NewCond(&c.mu)
	go c.dispatchLoop()
	return c
}

// Get enqueues a fetch for (domain, path) and blocks until it completes,
// the coordinator is cancelled, or ctx is done.
func (c *Coordinator) Get(ctx context.Context, domain, path string) (io.ReadCloser, error) {
	req := &request{ctx: ctx, domain: domain, path: path, resultCh: make(chan result, 1)}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.New("fetch: coordinator is shut down")
	}
	c.queue = append(c.queue, req)
	c.cond.Signal()
	c.mu.Unlock()

	select {
	case res := <-req.resultCh:
		return res.rc, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// dispatchLoop waits for a pending request with capacity available,
// launches it in its own goroutine, and repeats until Cancel is called
// and the queue drains.
func (c *Coordinator) dispatchLoop() {
	for {
		c.mu.Lock()
		for len(c.queue) == 0 || c.inFlight >= c.maxRequests {
			if c.closed && len(c.queue) == 0 {
				c.mu.Unlock()
				return
			}
			c.cond.Wait()
		}
		req := c.queue[0]
		c.queue = c.queue[1:]
		c.inFlight++
		c.mu.Unlock()

		go c.run(req)
	}
}

func (c *Coordinator) run(req *request) {
	rc, err := c.fetch(req.ctx, req.domain, req.path)
	if err != nil {
		err = errors.Wrapf(err, "fetch %s%s", req.domain, req.path)
	}
	req.resultCh <- result{rc: rc, err: err}

	c.mu.Lock()
	c.inFlight--
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Cancel drains every pending request with an error, stops accepting new
// ones, and blocks until all in-flight fetches finish.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	pending := c.queue
	c.queue = nil
	c.closed = true
	c.mu.Unlock()

	for _, req := range pending {
		req.resultCh <- result{err: errors.New("fetch: cancelled")}
	}

	c.mu.Lock()
	c.cond.Broadcast()
	for c.inFlight > 0 {
		c.cond.Wait()
	}
	c.mu.Unlock()
}
