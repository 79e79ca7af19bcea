package client

import (
	"log/slog"
	"time"
)

// Default runtime configuration values.
const (
	defaultPollTimeout  = 2 * time.Second // matches the component's recommended receive timeout
	defaultUpdateBuffer = 1024            // absorbs bursts without blocking the dispatch loop

	// authQueueSize bounds the serial queue feeding the authorization
	// machine. The handshake advances one state per acknowledged request,
	// so the queue rarely holds more than one frame; the slack absorbs
	// unsolicited transitions emitted while the machine is blocked in a
	// Call. A component flooding past the bound blocks the dispatch loop
	// on the queue send (frames are never dropped); the stop signal is
	// the escape, same as the update sink.
	authQueueSize = 10
)

// Options holds resolved construction-time configuration for a Client.
type Options struct {
	// PollTimeout is the per-iteration Receive timeout of the dispatch
	// loop. It bounds shutdown latency: the stop signal is observed only
	// between polls.
	PollTimeout time.Duration

	// UpdateBuffer is the capacity of the update sink. Once full, the
	// dispatch loop blocks rather than dropping frames — consumers must
	// drain Updates().
	UpdateBuffer int

	// Handler supplies user secrets during the authorization handshake.
	// Defaults to a TermHandler prompting on stderr.
	Handler AuthorizationHandler

	// Logger receives structured runtime events. Defaults to a discard
	// logger; the runtime is silent unless asked.
	Logger *slog.Logger

	// Metrics, when non-nil, records routed-frame and in-flight-call
	// meters on its prometheus registry.
	Metrics *Metrics
}

// Option configures a Client at construction time.
type Option func(*Options)

// WithPollTimeout sets the dispatch loop's Receive timeout.
// Values <= 0 are ignored.
func WithPollTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.PollTimeout = d
		}
	}
}

// WithUpdateBuffer sets the update sink capacity. Values <= 0 are ignored.
func WithUpdateBuffer(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.UpdateBuffer = size
		}
	}
}

// WithHandler sets the authorization handler invoked for user secrets.
func WithHandler(h AuthorizationHandler) Option {
	return func(o *Options) {
		if h != nil {
			o.Handler = h
		}
	}
}

// WithLogger sets the structured logger for runtime events.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithMetrics attaches prometheus meters to the runtime.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

func resolveOptions(opts ...Option) Options {
	o := Options{
		PollTimeout:  defaultPollTimeout,
		UpdateBuffer: defaultUpdateBuffer,
		Handler:      NewTermHandler(),
		Logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
