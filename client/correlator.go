package client

import (
	"sync"

	"github.com/dmora/tdlink"
)

// correlator maps correlation tokens to single-use delivery slots.
//
// The synchronization model is a mutex-guarded map[string]chan — the mutex
// covers only map mutation, never delivery, so unrelated calls are not
// serialized. Each slot is a 1-buffered channel fulfilled at most once:
// notify deletes the registration before sending, which makes the buffered
// send non-blocking by construction.
type correlator struct {
	mu      sync.Mutex
	pending map[string]chan tdlink.Frame
	closed  bool
}

func newCorrelator() *correlator {
	return &correlator{pending: make(map[string]chan tdlink.Frame)}
}

// subscribe registers a delivery slot for token. The returned channel yields
// exactly one frame, or is closed without a value when the registration is
// cancelled by drain.
func (c *correlator) subscribe(token string) (<-chan tdlink.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, tdlink.ErrCancelled
	}
	if _, exists := c.pending[token]; exists {
		return nil, tdlink.ErrAlreadySubscribed
	}
	ch := make(chan tdlink.Frame, 1)
	c.pending[token] = ch
	return ch, nil
}

// notify delivers frame to the slot registered under its token and reports
// whether the frame was consumed. Frames without a token, or whose token has
// no live registration, pass through unconsumed — the caller must route them
// onward, never drop them.
func (c *correlator) notify(frame tdlink.Frame) bool {
	if frame.Extra == "" {
		return false
	}
	c.mu.Lock()
	ch, ok := c.pending[frame.Extra]
	if ok {
		delete(c.pending, frame.Extra)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	ch <- frame
	return true
}

// unsubscribe removes a registration and closes its slot so a blocked reader
// unblocks. No-op for absent or already-fulfilled tokens.
func (c *correlator) unsubscribe(token string) {
	c.mu.Lock()
	ch, ok := c.pending[token]
	if ok {
		delete(c.pending, token)
	}
	c.mu.Unlock()
	if ok {
		close(ch)
	}
}

// drain cancels every pending registration and rejects future subscribes.
// Awaiting callers observe a closed slot and fail with ErrCancelled.
func (c *correlator) drain() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for token, ch := range c.pending {
		close(ch)
		delete(c.pending, token)
	}
}

// size reports the number of live registrations.
func (c *correlator) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
