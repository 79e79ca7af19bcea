package tdlink

import "time"

// Transport is the native component's primitive surface.
//
// Implementations wrap the component's C bindings (or a test double) and are
// provided by the caller — tdlink never constructs one. All frames are
// opaque UTF-8 JSON objects.
//
// The component assumes a single consumer for Receive: the runtime's
// dispatch loop is the only caller, and exactly one goroutine holds the
// blocking Receive call at any instant. Implementations do not need to be
// safe for concurrent Receive, but Send may be called from any goroutine.
type Transport interface {
	// Send submits a request frame on behalf of the given client identity.
	// It does not wait for a response; any response arrives later through
	// Receive, matched by the frame's "@extra" token.
	Send(clientID int32, frame []byte) error

	// Receive blocks for up to timeout and returns the next inbound frame,
	// or nil if nothing arrived within the timeout. Frames may be responses,
	// authorization-state updates, or unsolicited events, in any order.
	Receive(timeout time.Duration) []byte

	// Execute runs a request synchronously, bypassing the event loop.
	// Only valid for methods the component documents as executable offline.
	// Returns nil if the method produced no result.
	Execute(frame []byte) []byte
}
