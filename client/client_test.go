package client

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmora/tdlink"
	"github.com/dmora/tdlink/transporttest"
)

// newTestClient builds a Client over the script with a short poll timeout so
// Stop returns quickly. The client is not started.
func newTestClient(t *testing.T, script *transporttest.Script, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithPollTimeout(5 * time.Millisecond),
		WithHandler(&StaticHandler{Key: "k", Phone: "+15550100", AuthCode: "12345", Secret: "pw"}),
	}
	c, err := New(script, 1, Settings{APIID: 94575, APIHash: "a3406de8d171bb422bb6ddf3bbd800e2"}, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Stop)
	return c
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, 1, Settings{APIID: 1, APIHash: "h"}); !errors.Is(err, tdlink.ErrBadRequest) {
		t.Errorf("nil transport err = %v, want ErrBadRequest", err)
	}
	if _, err := New(transporttest.NewScript(), 1, Settings{APIHash: "h"}); !errors.Is(err, tdlink.ErrBadRequest) {
		t.Errorf("missing api_id err = %v, want ErrBadRequest", err)
	}
	if _, err := New(transporttest.NewScript(), 1, Settings{APIID: 1}); !errors.Is(err, tdlink.ErrBadRequest) {
		t.Errorf("missing api_hash err = %v, want ErrBadRequest", err)
	}
}

func TestClient_Call_RoundTrip(t *testing.T) {
	script := transporttest.NewScript()
	script.Respond("getMe", func(sent transporttest.Sent) [][]byte {
		return [][]byte{transporttest.Reply(sent, map[string]any{"@type": "user", "id": 7})}
	})
	c := newTestClient(t, script)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	frame, err := c.Call(context.Background(), map[string]any{"@type": "getMe"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if frame.Type != "user" {
		t.Errorf("response type = %q, want user", frame.Type)
	}
}

func TestClient_Call_CallerToken(t *testing.T) {
	script := transporttest.NewScript()
	script.Respond("getMe", func(sent transporttest.Sent) [][]byte {
		return [][]byte{transporttest.Reply(sent, map[string]any{"@type": "user"})}
	})
	c := newTestClient(t, script)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := c.Call(context.Background(), map[string]any{"@type": "getMe", "@extra": "my-token"}); err != nil {
		t.Fatalf("Call: %v", err)
	}
	sent := script.SentFrames()
	if len(sent) != 1 || sent[0].Extra != "my-token" {
		t.Errorf("sent frames = %+v, want one frame with token my-token", sent)
	}
}

func TestClient_Call_RemoteError(t *testing.T) {
	script := transporttest.NewScript()
	script.Respond("getMe", func(sent transporttest.Sent) [][]byte {
		return [][]byte{transporttest.ErrorReply(sent, 401, "UNAUTHORIZED")}
	})
	c := newTestClient(t, script)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err := c.Call(context.Background(), map[string]any{"@type": "getMe"})
	remote, ok := tdlink.AsRemote(err)
	if !ok {
		t.Fatalf("Call err = %v, want RemoteError", err)
	}
	if remote.Code != 401 || remote.Message != "UNAUTHORIZED" {
		t.Errorf("remote error = %+v", remote)
	}
}

func TestClient_Call_ContextCancelled(t *testing.T) {
	script := transporttest.NewScript()
	c := newTestClient(t, script)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.Call(ctx, map[string]any{"@type": "getMe"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Call err = %v, want DeadlineExceeded", err)
	}
}

func TestClient_Call_NotStarted(t *testing.T) {
	c := newTestClient(t, transporttest.NewScript())
	if _, err := c.Call(context.Background(), map[string]any{"@type": "getMe"}); !errors.Is(err, tdlink.ErrBadRequest) {
		t.Errorf("Call before Start err = %v, want ErrBadRequest", err)
	}
}

func TestClient_Call_InvalidRequest(t *testing.T) {
	c := newTestClient(t, transporttest.NewScript())
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := c.Call(context.Background(), map[string]any{"name": "version"}); !errors.Is(err, tdlink.ErrBadRequest) {
		t.Errorf("request without discriminant err = %v, want ErrBadRequest", err)
	}
	if _, err := c.Call(context.Background(), []string{"not", "an", "object"}); !errors.Is(err, tdlink.ErrBadRequest) {
		t.Errorf("non-object request err = %v, want ErrBadRequest", err)
	}
}

func TestEncodeCall_PreservesLargeIntegers(t *testing.T) {
	// Access hashes exceed float64 precision; injecting the token must not
	// round them.
	payload, method, token, err := encodeCall(map[string]any{
		"@type":       "getChat",
		"access_hash": int64(9007199254740993),
	})
	if err != nil {
		t.Fatalf("encodeCall: %v", err)
	}
	if method != "getChat" || token == "" {
		t.Errorf("method, token = %q, %q", method, token)
	}
	if !strings.Contains(string(payload), "9007199254740993") {
		t.Errorf("payload corrupted the access hash: %s", payload)
	}
}

func TestEncodeCall_KeepsCallerToken(t *testing.T) {
	payload, _, token, err := encodeCall(map[string]any{"@type": "getMe", "@extra": "mine"})
	if err != nil {
		t.Fatalf("encodeCall: %v", err)
	}
	if token != "mine" {
		t.Errorf("token = %q, want mine", token)
	}
	if !strings.Contains(string(payload), `"mine"`) {
		t.Errorf("payload lost the caller token: %s", payload)
	}
}

func TestClient_Updates_UnclaimedFrames(t *testing.T) {
	script := transporttest.NewScript()
	c := newTestClient(t, script)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	script.Queue(transporttest.JSON(map[string]any{"@type": "updateNewMessage", "message": "hi"}))
	select {
	case frame := <-c.Updates():
		if frame.Type != "updateNewMessage" {
			t.Errorf("update type = %q, want updateNewMessage", frame.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("update never delivered")
	}
}

func TestClient_LateResponseRoutedToUpdates(t *testing.T) {
	script := transporttest.NewScript()
	c := newTestClient(t, script)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := c.Call(ctx, map[string]any{"@type": "getMe", "@extra": "late"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Call err = %v, want DeadlineExceeded", err)
	}

	// The call is finished; its response must surface as an update instead
	// of being dropped.
	script.Queue(transporttest.JSON(map[string]any{"@type": "user", "@extra": "late"}))
	select {
	case frame := <-c.Updates():
		if frame.Type != "user" || frame.Extra != "late" {
			t.Errorf("late frame = (%q, %q), want (user, late)", frame.Type, frame.Extra)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("late response never surfaced on Updates")
	}
}

func TestClient_Stop_CancelsPendingCalls(t *testing.T) {
	script := transporttest.NewScript()
	c := newTestClient(t, script)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := c.Call(context.Background(), map[string]any{"@type": "getMe"})
		errc <- err
	}()
	waitFor(t, "call registration", func() bool { return len(script.SentFrames()) == 1 })

	c.Stop()
	select {
	case err := <-errc:
		if !errors.Is(err, tdlink.ErrCancelled) {
			t.Errorf("pending call err = %v, want ErrCancelled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending call never unblocked")
	}
	if got := c.State(); got != tdlink.StateClosed {
		t.Errorf("state after Stop = %v, want Closed", got)
	}
}

func TestClient_Stop_BeforeStart(t *testing.T) {
	c := newTestClient(t, transporttest.NewScript())
	c.Stop()
	c.Stop()

	state, err := c.WaitUntilReady(context.Background())
	if err != nil || state != tdlink.StateClosed {
		t.Errorf("WaitUntilReady after Stop = (%v, %v), want (Closed, nil)", state, err)
	}
}

func TestClient_Start_Twice(t *testing.T) {
	c := newTestClient(t, transporttest.NewScript())
	if err := c.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := c.Start(); !errors.Is(err, tdlink.ErrBadRequest) {
		t.Errorf("second Start err = %v, want ErrBadRequest", err)
	}
}

func TestClient_CallInto(t *testing.T) {
	script := transporttest.NewScript()
	script.Respond("getMe", func(sent transporttest.Sent) [][]byte {
		return [][]byte{transporttest.Reply(sent, map[string]any{"@type": "user", "id": 42})}
	})
	c := newTestClient(t, script)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var user struct {
		ID int64 `json:"id"`
	}
	if err := c.CallInto(context.Background(), map[string]any{"@type": "getMe"}, "user", &user); err != nil {
		t.Fatalf("CallInto: %v", err)
	}
	if user.ID != 42 {
		t.Errorf("decoded id = %d, want 42", user.ID)
	}

	if err := c.CallInto(context.Background(), map[string]any{"@type": "getMe"}, "chat", &user); !errors.Is(err, tdlink.ErrProtocol) {
		t.Errorf("mismatched discriminant err = %v, want ErrProtocol", err)
	}
}

func TestClient_Execute(t *testing.T) {
	script := transporttest.NewScript()
	script.OnExecute("getTextEntities", func(sent transporttest.Sent) []byte {
		return transporttest.JSON(map[string]any{"@type": "textEntities"})
	})
	script.OnExecute("failing", func(sent transporttest.Sent) []byte {
		return transporttest.JSON(map[string]any{"@type": "error", "code": 400, "message": "bad"})
	})
	c := newTestClient(t, script)

	frame, err := c.Execute(map[string]any{"@type": "getTextEntities", "text": "x"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if frame.Type != "textEntities" {
		t.Errorf("Execute type = %q, want textEntities", frame.Type)
	}

	if _, err := c.Execute(map[string]any{"@type": "failing"}); err == nil {
		t.Error("Execute error frame: want error, got nil")
	} else if remote, ok := tdlink.AsRemote(err); !ok || remote.Code != 400 {
		t.Errorf("Execute err = %v, want RemoteError 400", err)
	}

	frame, err = c.Execute(map[string]any{"@type": "unhandled"})
	if err != nil || frame.Type != "" {
		t.Errorf("Execute without result = (%+v, %v), want zero frame", frame, err)
	}
}
