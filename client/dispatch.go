package client

import (
	"fmt"

	"github.com/dmora/tdlink"
	"github.com/dmora/tdlink/internal/errfmt"
)

// dispatchLoop is the sole consumer of Transport.Receive. It runs on its
// own goroutine so the blocking poll never stalls callers awaiting
// correlated responses, and it observes the stop signal only between polls
// — shutdown latency is bounded by the poll timeout.
func (c *Client) dispatchLoop() {
	defer close(c.loopDone)
	c.log.Debug("dispatch loop started", "client_id", c.clientID)

	for {
		select {
		case <-c.stop:
			c.finish(nil)
			return
		default:
		}

		raw := c.transport.Receive(c.opts.PollTimeout)
		if raw == nil {
			continue
		}

		frame, err := tdlink.DecodeFrame(raw)
		if err != nil {
			// The component's framing is assumed reliable; an undecodable
			// frame means the contract is broken and continuing would
			// silently mis-route everything after it. Fail loudly.
			c.log.Error("undecodable frame", "error", err, "frame", errfmt.Snippet(raw))
			c.finish(fmt.Errorf("dispatch: %w", err))
			return
		}

		c.route(frame)
	}
}

// route fans a decoded frame out to its destination: the correlator wins if
// a pending call claims the token; unmatched authorization updates feed the
// auth machine's serial queue; everything else is an update for the owner.
// Sink sends block rather than drop — the stop signal is the only escape.
func (c *Client) route(frame tdlink.Frame) {
	if c.correlator.notify(frame) {
		c.metrics.routed(routeCall)
		return
	}

	if frame.Type == typeUpdateAuthorizationState {
		c.metrics.routed(routeAuth)
		select {
		case c.authQueue <- frame:
		case <-c.stop:
		}
		return
	}

	c.metrics.routed(routeUpdate)
	select {
	case c.updates <- frame:
	case <-c.stop:
	}
}

// finish tears the runtime down from the dispatch goroutine, exactly once:
// record the terminal state, cancel pending calls, release the owned
// channels. A nil err is a clean stop; non-nil marks the client errored and
// fails the ready signal.
func (c *Client) finish(err error) {
	if err != nil {
		c.setState(tdlink.StateErrored)
		c.ready.fail(err)
		c.log.Error("dispatch loop failed", "error", err)
	} else {
		c.setState(tdlink.StateClosed)
		c.log.Debug("dispatch loop stopped")
	}
	c.correlator.drain()
	close(c.authQueue)
	close(c.updates)
}
