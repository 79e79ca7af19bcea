package client

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmora/tdlink"
)

// AuthorizationHandler supplies the user secrets the handshake suspends on.
//
// Each method receives the triggering authorization-state frame as a
// snapshot (its fields describe the request, e.g. code type or password
// hint) and returns the secret as text. Methods may block indefinitely —
// they run on the authorization goroutine, never on the dispatch loop, so
// interactive input does not stall in-flight calls.
type AuthorizationHandler interface {
	// EncryptionKey returns the local database encryption key.
	EncryptionKey(state tdlink.Frame) (string, error)

	// PhoneNumber returns the account's phone number.
	PhoneNumber(state tdlink.Frame) (string, error)

	// Code returns the one-time authentication code.
	Code(state tdlink.Frame) (string, error)

	// Password returns the two-step verification password.
	Password(state tdlink.Frame) (string, error)
}

// TermHandler prompts for each secret on Out and reads one line from In.
type TermHandler struct {
	In  io.Reader
	Out io.Writer
}

var _ AuthorizationHandler = (*TermHandler)(nil)

// NewTermHandler returns a TermHandler wired to stdin/stderr.
func NewTermHandler() *TermHandler {
	return &TermHandler{In: os.Stdin, Out: os.Stderr}
}

func (h *TermHandler) prompt(label string) (string, error) {
	fmt.Fprintf(h.Out, "%s: ", label)
	line, err := bufio.NewReader(h.In).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}

func (h *TermHandler) EncryptionKey(tdlink.Frame) (string, error) {
	return h.prompt("database encryption key")
}

func (h *TermHandler) PhoneNumber(tdlink.Frame) (string, error) {
	return h.prompt("phone number")
}

func (h *TermHandler) Code(tdlink.Frame) (string, error) {
	return h.prompt("authentication code")
}

func (h *TermHandler) Password(tdlink.Frame) (string, error) {
	return h.prompt("password")
}

// StaticHandler returns fixed secrets. Intended for bots, tests, and replay
// runs where the secrets are known up front.
type StaticHandler struct {
	Key      string
	Phone    string
	AuthCode string
	Secret   string
}

var _ AuthorizationHandler = StaticHandler{}

func (h StaticHandler) EncryptionKey(tdlink.Frame) (string, error) { return h.Key, nil }
func (h StaticHandler) PhoneNumber(tdlink.Frame) (string, error)   { return h.Phone, nil }
func (h StaticHandler) Code(tdlink.Frame) (string, error)          { return h.AuthCode, nil }
func (h StaticHandler) Password(tdlink.Frame) (string, error)      { return h.Secret, nil }
