package transporttest

import (
	"testing"
	"time"

	"github.com/dmora/tdlink"
)

// RunTransportTests runs the [tdlink.Transport] behavioral contract against
// an implementation. The factory is called once per subtest so each case
// sees a fresh, empty transport.
func RunTransportTests(t *testing.T, factory func(t *testing.T) tdlink.Transport) {
	t.Helper()

	t.Run("ReceiveTimesOutEmpty", func(t *testing.T) {
		tr := factory(t)
		start := time.Now()
		if got := tr.Receive(20 * time.Millisecond); got != nil {
			t.Fatalf("Receive on empty transport = %q, want nil", got)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("Receive blocked %v past a 20ms timeout", elapsed)
		}
	})

	t.Run("SendAcceptsValidFrame", func(t *testing.T) {
		tr := factory(t)
		if err := tr.Send(1, JSON(map[string]any{"@type": "getOption", "name": "version"})); err != nil {
			t.Fatalf("Send valid frame: %v", err)
		}
	})

	t.Run("SendRejectsMalformedFrame", func(t *testing.T) {
		tr := factory(t)
		if err := tr.Send(1, []byte("not json")); err == nil {
			t.Error("Send malformed frame: want error, got nil")
		}
	})

	t.Run("ExecuteUnknownMethod", func(t *testing.T) {
		tr := factory(t)
		raw := tr.Execute(JSON(map[string]any{"@type": "someUnknownMethod"}))
		if raw == nil {
			return
		}
		// A non-nil result must at least be a decodable frame.
		if _, err := tdlink.DecodeFrame(raw); err != nil {
			t.Errorf("Execute returned an undecodable frame: %v", err)
		}
	})
}
