package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmora/tdlink"
	"github.com/dmora/tdlink/transporttest"
)

func TestQueueRecording(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.ndjson")
	content := `{"@type":"updateAuthorizationState","authorization_state":{"@type":"authorizationStateReady"}}

{"@type":"updateNewMessage"}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write recording: %v", err)
	}

	script := transporttest.NewScript()
	queued, err := queueRecording(script, path)
	if err != nil {
		t.Fatalf("queueRecording: %v", err)
	}
	if queued != 2 {
		t.Errorf("queued = %d, want 2 (blank lines skipped)", queued)
	}

	for _, want := range []string{"updateAuthorizationState", "updateNewMessage"} {
		frame, err := tdlink.DecodeFrame(script.Receive(time.Second))
		if err != nil {
			t.Fatalf("decode queued frame: %v", err)
		}
		if frame.Type != want {
			t.Errorf("frame type = %q, want %q", frame.Type, want)
		}
	}
}

func TestQueueRecording_MissingFile(t *testing.T) {
	if _, err := queueRecording(transporttest.NewScript(), "/nonexistent/frames.ndjson"); err == nil {
		t.Error("missing file: want error, got nil")
	}
}
