// Package transporttest provides an in-memory scripted Transport for tests,
// plus a conformance suite any Transport implementation can run against
// itself.
//
// A Script pairs a FIFO queue of inbound frames with response hooks keyed on
// outgoing method discriminants, so a test can describe a full exchange
// declaratively:
//
//	s := transporttest.NewScript()
//	s.Respond("getMe", func(sent transporttest.Sent) [][]byte {
//		return [][]byte{transporttest.Reply(sent, map[string]any{"@type": "user", "id": 1})}
//	})
package transporttest

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Sent is one outgoing frame recorded by a Script, pre-parsed for assertions.
type Sent struct {
	ClientID int32
	Method   string
	Extra    string
	Raw      []byte
}

// RespondFunc produces the inbound frames a Script queues in response to one
// outgoing frame.
type RespondFunc func(sent Sent) [][]byte

// ExecuteFunc produces the synchronous result of an Execute call. A nil
// return means the method produced no result.
type ExecuteFunc func(sent Sent) []byte

// Script is a Transport whose inbound traffic is driven entirely by the
// test: frames queued up front with Queue, or produced by Respond hooks
// when the code under test sends. Receive and Send are safe for concurrent
// use; the single-consumer Receive rule still applies, as it does for the
// real channel.
type Script struct {
	mu      sync.Mutex
	inbound [][]byte
	wake    chan struct{}
	closed  bool
	sent    []Sent
	hooks   map[string]RespondFunc
	def     RespondFunc
	exec    map[string]ExecuteFunc
}

// NewScript returns an empty Script.
func NewScript() *Script {
	return &Script{
		wake:  make(chan struct{}, 1),
		hooks: make(map[string]RespondFunc),
		exec:  make(map[string]ExecuteFunc),
	}
}

// Queue appends frames to the inbound queue in order. The queue is
// unbounded; entire recordings can be loaded up front.
func (s *Script) Queue(frames ...[]byte) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	for _, frame := range frames {
		buf := make([]byte, len(frame))
		copy(buf, frame)
		s.inbound = append(s.inbound, buf)
	}
	s.mu.Unlock()
	s.signal()
}

// signal nudges a blocked Receive without requiring one to be waiting.
func (s *Script) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Respond registers a hook invoked whenever a frame with the given method
// discriminant is sent. The returned frames are queued inbound in order.
func (s *Script) Respond(method string, fn RespondFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[method] = fn
}

// RespondDefault registers a fallback hook for methods without a Respond
// registration.
func (s *Script) RespondDefault(fn RespondFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.def = fn
}

// OnExecute registers a hook for the synchronous Execute path.
func (s *Script) OnExecute(method string, fn ExecuteFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exec[method] = fn
}

// Send records the frame and fires any Respond hook registered for its
// method discriminant.
func (s *Script) Send(clientID int32, frame []byte) error {
	rec, err := parseSent(clientID, frame)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("transporttest: script closed")
	}
	s.sent = append(s.sent, rec)
	hook := s.hooks[rec.Method]
	if hook == nil {
		hook = s.def
	}
	s.mu.Unlock()

	if hook != nil {
		s.Queue(hook(rec)...)
	}
	return nil
}

// Receive returns the next queued inbound frame, or nil once the timeout
// elapses with the queue empty. After Close it keeps serving queued frames
// until the queue drains, then returns nil immediately.
func (s *Script) Receive(timeout time.Duration) []byte {
	deadline := time.Now().Add(timeout)
	for {
		s.mu.Lock()
		if len(s.inbound) > 0 {
			frame := s.inbound[0]
			s.inbound = s.inbound[1:]
			s.mu.Unlock()
			return frame
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return nil
		}

		remain := time.Until(deadline)
		if remain <= 0 {
			return nil
		}
		timer := time.NewTimer(remain)
		select {
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
			return nil
		}
	}
}

// Execute runs the registered OnExecute hook for the frame's method, or
// returns nil when none is registered.
func (s *Script) Execute(frame []byte) []byte {
	rec, err := parseSent(0, frame)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	hook := s.exec[rec.Method]
	s.mu.Unlock()
	if hook == nil {
		return nil
	}
	return hook(rec)
}

// Close stops accepting new frames. Frames already queued remain readable.
func (s *Script) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
}

// SentFrames returns a snapshot of every frame sent so far, in order.
func (s *Script) SentFrames() []Sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Sent, len(s.sent))
	copy(out, s.sent)
	return out
}

// SentMethods returns the method discriminants of every sent frame, in order.
func (s *Script) SentMethods() []string {
	frames := s.SentFrames()
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = f.Method
	}
	return out
}

func parseSent(clientID int32, frame []byte) (Sent, error) {
	var hdr struct {
		Type  string `json:"@type"`
		Extra string `json:"@extra"`
	}
	if err := json.Unmarshal(frame, &hdr); err != nil {
		return Sent{}, fmt.Errorf("transporttest: malformed frame: %w", err)
	}
	if hdr.Type == "" {
		return Sent{}, fmt.Errorf("transporttest: frame has no @type")
	}
	buf := make([]byte, len(frame))
	copy(buf, frame)
	return Sent{ClientID: clientID, Method: hdr.Type, Extra: hdr.Extra, Raw: buf}, nil
}

// --- Frame builders ---

// JSON marshals v, panicking on failure. Test-only convenience.
func JSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("transporttest: marshal: %v", err))
	}
	return data
}

// Reply marshals v with the correlation token of sent injected, so the
// result is routed back to the originating call.
func Reply(sent Sent, v any) []byte {
	var obj map[string]any
	if err := json.Unmarshal(JSON(v), &obj); err != nil {
		panic(fmt.Sprintf("transporttest: reply must be a JSON object: %v", err))
	}
	obj["@extra"] = sent.Extra
	return JSON(obj)
}

// Ok builds the component's generic success frame for the given token.
func Ok(sent Sent) []byte {
	return JSON(map[string]any{"@type": "ok", "@extra": sent.Extra})
}

// ErrorReply builds an error frame correlated to sent.
func ErrorReply(sent Sent, code int, message string) []byte {
	return JSON(map[string]any{
		"@type":   "error",
		"code":    code,
		"message": message,
		"@extra":  sent.Extra,
	})
}

// AuthState builds the two-level authorization update envelope for the
// given inner state discriminant.
func AuthState(state string) []byte {
	return JSON(map[string]any{
		"@type":               "updateAuthorizationState",
		"authorization_state": map[string]any{"@type": state},
	})
}
