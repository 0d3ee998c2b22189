// Package call matches asynchronous side-call responses back to their
// issuers. Responses arrive in any order relative to requests; each
// request id resolves exactly once.
package call

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrUnknownRequest   = errors.New("unknown request id")
	ErrAlreadyCompleted = errors.New("request already completed")
	ErrCancelled        = errors.New("call cancelled")
)

// Result is what a waiter receives: the decoded response payload or the
// error that terminated the call.
type Result struct {
	Payload any
	Err     error
}

type pendingCall struct {
	done chan Result
}

// Correlator tracks calls in flight for one session. Ids it issued and
// already resolved are remembered for the session's lifetime so a
// duplicate completion surfaces as an error instead of a silent
// overwrite.
type Correlator struct {
	mu        sync.Mutex
	pending   map[string]*pendingCall
	completed map[string]struct{}
	closed    bool
	closeErr  error
}

func NewCorrelator() *Correlator {
	return &Correlator{
		pending:   map[string]*pendingCall{},
		completed: map[string]struct{}{},
	}
}

// Issue registers a new pending call and returns its opaque request id.
// After the correlator is closed every issue fails immediately on Await.
func (c *Correlator) Issue() string {
	id := uuid.NewString()
	c.mu.Lock()
	defer c.mu.Unlock()
	pc := &pendingCall{done: make(chan Result, 1)}
	if c.closed {
		pc.done <- Result{Err: c.closeErr}
	}
	c.pending[id] = pc
	return id
}

// Await blocks until the call resolves: a response arrives, the session
// ends (ErrCancelled), or ctx is done.
func (c *Correlator) Await(ctx context.Context, id string) (any, error) {
	c.mu.Lock()
	pc, ok := c.pending[id]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRequest, id)
	}
	select {
	case res := <-pc.done:
		c.forget(id)
		return res.Payload, res.Err
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}

// Complete resolves the pending call for id. At most one completion per
// id: a second completion is ErrAlreadyCompleted, an id never issued is
// ErrUnknownRequest.
func (c *Correlator) Complete(id string, payload any, err error) error {
	c.mu.Lock()
	pc, ok := c.pending[id]
	if !ok {
		_, done := c.completed[id]
		c.mu.Unlock()
		if done {
			return fmt.Errorf("%w: %q", ErrAlreadyCompleted, id)
		}
		return fmt.Errorf("%w: %q", ErrUnknownRequest, id)
	}
	delete(c.pending, id)
	c.completed[id] = struct{}{}
	c.mu.Unlock()

	pc.done <- Result{Payload: payload, Err: err}
	return nil
}

// CancelAll resolves every outstanding call with a cancellation and marks
// the correlator closed; calls issued afterwards resolve the same way.
// Never leaves a waiter hanging.
func (c *Correlator) CancelAll(cause error) {
	if cause == nil {
		cause = ErrCancelled
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.closeErr = cause
	for id, pc := range c.pending {
		delete(c.pending, id)
		c.completed[id] = struct{}{}
		pc.done <- Result{Err: cause}
	}
}

// Outstanding reports how many calls are awaiting a response.
func (c *Correlator) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Correlator) forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[id]; ok {
		delete(c.pending, id)
		c.completed[id] = struct{}{}
	}
}
