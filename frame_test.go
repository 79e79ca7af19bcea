package tdlink

import (
	"errors"
	"strings"
	"testing"

	"github.com/dmora/tdlink/internal/errfmt"
)

func TestDecodeFrame_Basic(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"@type":"updateNewMessage","@extra":"tok-1","message":{"id":7}}`))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if f.Type != "updateNewMessage" {
		t.Errorf("Type = %q, want %q", f.Type, "updateNewMessage")
	}
	if f.Extra != "tok-1" {
		t.Errorf("Extra = %q, want %q", f.Extra, "tok-1")
	}

	var body struct {
		Message struct {
			ID int `json:"id"`
		} `json:"message"`
	}
	if err := f.Unmarshal(&body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if body.Message.ID != 7 {
		t.Errorf("message id = %d, want 7", body.Message.ID)
	}
}

func TestDecodeFrame_NoExtra(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"@type":"ok"}`))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if f.Extra != "" {
		t.Errorf("Extra = %q, want empty", f.Extra)
	}
}

func TestDecodeFrame_Malformed(t *testing.T) {
	for _, input := range []string{
		`not json`,
		`{truncated`,
		`[1,2,3]`,
		`{"no_type":"here"}`,
		`{"@type":""}`,
	} {
		_, err := DecodeFrame([]byte(input))
		if err == nil {
			t.Errorf("DecodeFrame(%q): expected error", input)
			continue
		}
		if !errors.Is(err, ErrProtocol) {
			t.Errorf("DecodeFrame(%q): error = %v, want ErrProtocol", input, err)
		}
	}
}

func TestDecodeFrame_CopiesInput(t *testing.T) {
	data := []byte(`{"@type":"ok"}`)
	f, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}

	// Frames outlive the receive buffer; mutating the input must not
	// corrupt the decoded frame.
	data[2] = 'X'
	if string(f.Raw) != `{"@type":"ok"}` {
		t.Errorf("Raw = %q, input mutation leaked into frame", f.Raw)
	}
}

func TestFrame_Err(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"@type":"error","code":420,"message":"FLOOD_WAIT"}`))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if !f.IsError() {
		t.Fatal("IsError() = false, want true")
	}

	remoteErr, ok := AsRemote(f.Err())
	if !ok {
		t.Fatalf("Err() = %T, want *RemoteError", f.Err())
	}
	if remoteErr.Code != 420 {
		t.Errorf("code = %d, want 420", remoteErr.Code)
	}
	if remoteErr.Message != "FLOOD_WAIT" {
		t.Errorf("message = %q, want %q", remoteErr.Message, "FLOOD_WAIT")
	}
}

func TestFrame_Err_BoundsMessage(t *testing.T) {
	huge := strings.Repeat("x", 3*errfmt.MaxLen)
	f, err := DecodeFrame([]byte(`{"@type":"error","code":500,"message":"` + huge + `"}`))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}

	remoteErr, ok := AsRemote(f.Err())
	if !ok {
		t.Fatalf("Err() = %T, want *RemoteError", f.Err())
	}
	if len(remoteErr.Message) > errfmt.MaxLen {
		t.Errorf("message length = %d, want <= %d", len(remoteErr.Message), errfmt.MaxLen)
	}
	if remoteErr.Message == "" {
		t.Error("message truncated to empty")
	}
}

func TestFrame_Err_NonError(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"@type":"ok"}`))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if f.Err() != nil {
		t.Errorf("Err() = %v, want nil for non-error frame", f.Err())
	}
}
