package tdlink

// ClientState is the externally observable lifecycle of one client identity.
//
// Transitions are one-directional: Uninitialized → Opened, and from either
// of those into Closed or Errored, both of which are terminal.
type ClientState int

const (
	// StateUninitialized is the state before the authorization handshake
	// has reached Ready.
	StateUninitialized ClientState = iota

	// StateOpened means the handshake completed and calls are meaningful.
	StateOpened

	// StateClosed means the client shut down cleanly. Terminal.
	StateClosed

	// StateErrored means the client failed — a protocol violation, a fatal
	// handshake condition, or a transport failure. Terminal.
	StateErrored
)

// String returns the state name for logging.
func (s ClientState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateOpened:
		return "opened"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s ClientState) Terminal() bool {
	return s == StateClosed || s == StateErrored
}
