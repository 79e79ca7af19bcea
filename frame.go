package tdlink

import (
	"encoding/json"
	"fmt"

	"github.com/dmora/tdlink/internal/errfmt"
)

// Wire field names used by the native component.
const (
	// TypeField is the discriminant field present on every frame.
	TypeField = "@type"

	// ExtraField is the optional correlation token echoed from a request
	// into its response.
	ExtraField = "@extra"

	// TypeError is the discriminant of the component's structured error frame.
	TypeError = "error"
)

// Frame is one decoded JSON message exchanged with the native component.
// Immutable once decoded: Raw holds the original bytes, Type and Extra are
// extracted from them.
type Frame struct {
	// Type is the "@type" discriminant.
	Type string

	// Extra is the "@extra" correlation token, empty if absent.
	Extra string

	// Raw is the complete frame as received.
	Raw json.RawMessage
}

// frameHeader extracts the routing fields without decoding the full payload.
type frameHeader struct {
	Type  string `json:"@type"`
	Extra string `json:"@extra"`
}

// DecodeFrame parses a raw frame. A frame must be a JSON object carrying a
// non-empty "@type"; anything else is a contract violation by the component
// and is reported as ErrProtocol.
func DecodeFrame(data []byte) (Frame, error) {
	var hdr frameHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		return Frame{}, fmt.Errorf("%w: decode frame: %v", ErrProtocol, err)
	}
	if hdr.Type == "" {
		return Frame{}, fmt.Errorf("%w: frame has no %s field", ErrProtocol, TypeField)
	}
	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	return Frame{Type: hdr.Type, Extra: hdr.Extra, Raw: raw}, nil
}

// Unmarshal decodes the frame payload into v.
func (f Frame) Unmarshal(v any) error {
	if err := json.Unmarshal(f.Raw, v); err != nil {
		return fmt.Errorf("%w: unmarshal %s: %v", ErrProtocol, f.Type, err)
	}
	return nil
}

// IsError reports whether the frame is the component's structured error shape.
func (f Frame) IsError() bool { return f.Type == TypeError }

// Err converts an error frame into a *RemoteError. Returns nil for
// non-error frames.
func (f Frame) Err() error {
	if !f.IsError() {
		return nil
	}
	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	// An undecodable error frame still surfaces as a RemoteError — the
	// component said "error" and that verdict must not be lost. The message
	// is component-controlled, so it is bounded before entering the error.
	_ = json.Unmarshal(f.Raw, &body)
	return &RemoteError{Code: body.Code, Message: errfmt.Truncate(body.Message)}
}
