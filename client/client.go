package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dmora/tdlink"
)

// Client is the per-identity facade over a native component's frame
// channel. One Client owns one correlator, one dispatch loop, and one
// authorization machine; multiple Clients over distinct identities can
// share a process without touching shared state.
type Client struct {
	transport tdlink.Transport
	clientID  int32
	settings  Settings
	opts      Options
	log       *slog.Logger
	metrics   *Metrics

	correlator *correlator
	updates    chan tdlink.Frame
	authQueue  chan tdlink.Frame
	ready      *readySignal

	stateMu sync.Mutex
	state   tdlink.ClientState

	started  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	loopDone chan struct{}
	authDone chan struct{}
}

// New creates a Client over the given transport and client identity.
// Fails with ErrBadRequest when the settings the component refuses to start
// without are missing — before any frame is exchanged.
func New(t tdlink.Transport, clientID int32, settings Settings, opts ...Option) (*Client, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil transport", tdlink.ErrBadRequest)
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}
	o := resolveOptions(opts...)
	return &Client{
		transport:  t,
		clientID:   clientID,
		settings:   settings,
		opts:       o,
		log:        o.Logger.With("component", "tdlink"),
		metrics:    o.Metrics,
		correlator: newCorrelator(),
		updates:    make(chan tdlink.Frame, o.UpdateBuffer),
		authQueue:  make(chan tdlink.Frame, authQueueSize),
		ready:      newReadySignal(),
		stop:       make(chan struct{}),
		loopDone:   make(chan struct{}),
		authDone:   make(chan struct{}),
	}, nil
}

// ClientID returns the identity all frames of this client are scoped to.
// Read-only after construction.
func (c *Client) ClientID() int32 { return c.clientID }

// Start launches the dispatch loop and the authorization machine.
// The handshake begins as soon as the component emits its first
// authorization-state update; use WaitUntilReady to await the outcome.
func (c *Client) Start() error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: client already started", tdlink.ErrBadRequest)
	}
	flow := &authFlow{client: c, handler: c.opts.Handler, settings: c.settings}
	go c.dispatchLoop()
	go flow.run()
	return nil
}

// Call sends a request frame and awaits its correlated response.
//
// The request must marshal to a JSON object with an "@type" field. A
// caller-provided "@extra" token is honored; otherwise one is generated.
// The delivery slot is always released on exit — success, error frame,
// cancellation — so a late response for a finished call is routed to
// Updates rather than leaked or lost.
func (c *Client) Call(ctx context.Context, req any) (tdlink.Frame, error) {
	if !c.started.Load() {
		return tdlink.Frame{}, fmt.Errorf("%w: client not started", tdlink.ErrBadRequest)
	}

	payload, method, token, err := encodeCall(req)
	if err != nil {
		return tdlink.Frame{}, err
	}

	slot, err := c.correlator.subscribe(token)
	if err != nil {
		return tdlink.Frame{}, fmt.Errorf("%s: %w", method, err)
	}
	c.metrics.callStarted()
	defer c.metrics.callFinished()
	defer c.correlator.unsubscribe(token)

	if err := c.transport.Send(c.clientID, payload); err != nil {
		return tdlink.Frame{}, fmt.Errorf("%w: send %s: %v", tdlink.ErrTransport, method, err)
	}
	c.log.Debug("call sent", "method", method, "token", token)

	select {
	case frame, ok := <-slot:
		return finishCall(method, frame, ok)
	case <-ctx.Done():
		c.correlator.unsubscribe(token)
		// The response may have been delivered just before cancellation —
		// drain the slot so a successful result is not discarded.
		select {
		case frame, ok := <-slot:
			if ok {
				return finishCall(method, frame, ok)
			}
		default:
		}
		return tdlink.Frame{}, ctx.Err()
	}
}

// CallInto performs Call and decodes the response into result, failing with
// ErrProtocol when the response discriminant is not want.
func (c *Client) CallInto(ctx context.Context, req any, want string, result any) error {
	frame, err := c.Call(ctx, req)
	if err != nil {
		return err
	}
	if frame.Type != want {
		return fmt.Errorf("%w: unexpected response %q, want %q", tdlink.ErrProtocol, frame.Type, want)
	}
	return frame.Unmarshal(result)
}

// Execute runs a request synchronously through the transport's execute
// primitive, bypassing the dispatch loop. Only valid for methods the
// component documents as executable offline. Returns a zero Frame when the
// method produced no result.
func (c *Client) Execute(req any) (tdlink.Frame, error) {
	payload, method, err := encodeRequest(req)
	if err != nil {
		return tdlink.Frame{}, err
	}
	raw := c.transport.Execute(payload)
	if raw == nil {
		return tdlink.Frame{}, nil
	}
	frame, err := tdlink.DecodeFrame(raw)
	if err != nil {
		return tdlink.Frame{}, err
	}
	if frame.IsError() {
		return tdlink.Frame{}, fmt.Errorf("%s: %w", method, frame.Err())
	}
	return frame, nil
}

// Updates returns the ordered stream of inbound frames not claimed by any
// pending call or by the authorization machine. Closed when the client
// stops. Consumers must drain it — the dispatch loop blocks, rather than
// drops, when the buffer fills.
func (c *Client) Updates() <-chan tdlink.Frame {
	return c.updates
}

// WaitUntilReady blocks until the handshake reaches a terminal outcome:
// (StateOpened, nil) on success, (StateClosed, nil) when the frame stream
// ends in a clean close before Ready, or an error when the handshake fails.
// The first outcome is latched and shared by all callers, with one
// exception: a fatal protocol anomaly after Ready overwrites a latched
// success, so callers arriving later observe the error rather than a
// success the runtime has since withdrawn.
func (c *Client) WaitUntilReady(ctx context.Context) (tdlink.ClientState, error) {
	return c.ready.wait(ctx)
}

// State returns a snapshot of the client lifecycle state.
func (c *Client) State() tdlink.ClientState {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// Stop raises the stop signal and blocks until the dispatch loop and the
// authorization machine have released their channels. The loop observes the
// signal between polls, so Stop returns within roughly one poll timeout.
// Safe to call repeatedly and before Start.
func (c *Client) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	if !c.started.Load() {
		c.setState(tdlink.StateClosed)
		c.ready.resolve(tdlink.StateClosed, nil)
		return
	}
	<-c.loopDone
	<-c.authDone
}

// --- Internal ---

// setState advances the lifecycle state. Terminal states win: once Closed
// or Errored is recorded, later transitions are ignored.
func (c *Client) setState(s tdlink.ClientState) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.state.Terminal() {
		return
	}
	c.state = s
}

// stopping reports whether the stop signal has been raised.
func (c *Client) stopping() bool {
	select {
	case <-c.stop:
		return true
	default:
		return false
	}
}

// failHandshake records a fatal handshake condition: the client is errored
// and the ready signal reports the failure, overriding an earlier success
// (a post-Ready anomaly must not stay hidden behind a latched Opened).
func (c *Client) failHandshake(err error) {
	c.log.Error("authorization failed", "error", err)
	c.setState(tdlink.StateErrored)
	c.ready.fail(err)
}

func errSettings(msg string) error {
	return fmt.Errorf("%w: %s", tdlink.ErrBadRequest, msg)
}

// encodeRequest marshals req and verifies it is a JSON object with a
// non-empty "@type". Returns the payload and the method discriminant.
func encodeRequest(req any) ([]byte, string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: marshal request: %v", tdlink.ErrBadRequest, err)
	}
	var hdr struct {
		Type string `json:"@type"`
	}
	if err := json.Unmarshal(data, &hdr); err != nil {
		return nil, "", fmt.Errorf("%w: request must be a JSON object", tdlink.ErrBadRequest)
	}
	if hdr.Type == "" {
		return nil, "", fmt.Errorf("%w: request has no %s field", tdlink.ErrBadRequest, tdlink.TypeField)
	}
	return data, hdr.Type, nil
}

// encodeCall prepares a request for the correlated call path: a
// caller-provided "@extra" is kept, otherwise a fresh token is injected.
// Numbers are decoded as json.Number so the re-marshal cannot round large
// int64 values (access hashes exceed float64 precision) on the way out.
func encodeCall(req any) (payload []byte, method, token string, err error) {
	payload, method, err = encodeRequest(req)
	if err != nil {
		return nil, "", "", err
	}

	var obj map[string]any
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, "", "", fmt.Errorf("%w: request must be a JSON object", tdlink.ErrBadRequest)
	}
	token, _ = obj[tdlink.ExtraField].(string)
	if token == "" {
		token = uuid.NewString()
		obj[tdlink.ExtraField] = token
		payload, err = json.Marshal(obj)
		if err != nil {
			return nil, "", "", fmt.Errorf("%w: marshal request: %v", tdlink.ErrBadRequest, err)
		}
	}
	return payload, method, token, nil
}

// finishCall maps a fulfilled (or cancelled) delivery slot to the call result.
func finishCall(method string, frame tdlink.Frame, ok bool) (tdlink.Frame, error) {
	if !ok {
		return tdlink.Frame{}, fmt.Errorf("%s: %w", method, tdlink.ErrCancelled)
	}
	if frame.IsError() {
		return tdlink.Frame{}, fmt.Errorf("%s: %w", method, frame.Err())
	}
	return frame, nil
}

// --- Ready signal ---

// readySignal is the one-shot handshake outcome. The first resolution wins
// and wakes every waiter; fail may later override the outcome with an error
// (the channel closes at most once, so waiters never wake twice).
type readySignal struct {
	mu    sync.Mutex
	done  chan struct{}
	fired bool
	state tdlink.ClientState
	err   error
}

func newReadySignal() *readySignal {
	return &readySignal{done: make(chan struct{})}
}

func (r *readySignal) resolve(state tdlink.ClientState, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fired {
		return
	}
	r.fired = true
	r.state = state
	r.err = err
	close(r.done)
}

func (r *readySignal) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = tdlink.StateErrored
	r.err = err
	if !r.fired {
		r.fired = true
		close(r.done)
	}
}

func (r *readySignal) wait(ctx context.Context) (tdlink.ClientState, error) {
	select {
	case <-r.done:
	case <-ctx.Done():
		return tdlink.StateUninitialized, ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.err
}
