package tdlink

import (
	"errors"
	"strconv"
)

// Sentinel errors for runtime operations.
var (
	// ErrBadRequest indicates the caller misused the API — required
	// settings missing, Start called twice, and so on.
	ErrBadRequest = errors.New("tdlink: bad request")

	// ErrAlreadySubscribed indicates a correlation token was registered
	// while a prior registration for the same token was still pending.
	ErrAlreadySubscribed = errors.New("tdlink: token already subscribed")

	// ErrCancelled indicates a pending call's delivery slot was removed
	// before a response arrived (caller cancellation or client shutdown).
	ErrCancelled = errors.New("tdlink: call cancelled")

	// ErrProtocol indicates the component violated its framing contract:
	// an undecodable frame or an unexpected response discriminant.
	ErrProtocol = errors.New("tdlink: protocol violation")

	// ErrTransport indicates the send or receive primitive itself failed.
	ErrTransport = errors.New("tdlink: transport failure")
)

// RemoteError is a structured error frame returned by the native component
// in response to a call.
//
// Remote errors are local to the call that triggered them; they never affect
// other in-flight calls or the client lifecycle.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != 0 {
		return "tdlink: remote error " + strconv.Itoa(e.Code) + ": " + e.Message
	}
	return "tdlink: remote error: " + e.Message
}

// AsRemote extracts a *RemoteError from an error chain.
// Returns (nil, false) if the chain contains none. Convenience wrapper
// around errors.As — equivalent to:
//
//	var remoteErr *RemoteError
//	if errors.As(err, &remoteErr) { return remoteErr, true }
func AsRemote(err error) (*RemoteError, bool) {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr, true
	}
	return nil, false
}
