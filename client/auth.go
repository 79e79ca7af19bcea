// auth.go drives the mandatory authorization handshake.
//
// Authorization-state updates arrive as a two-level envelope:
//
//	outer: {"@type":"updateAuthorizationState","authorization_state":<inner>}
//	inner: {"@type":"authorizationStateWaitPhoneNumber", ...}
//
// The dispatch loop delivers the outer frame to a serial queue; authFlow
// unpacks the inner state and dispatches on its "@type" via the authActions
// map. Adding a wait-state = one map entry + one function.
package client

import (
	"context"
	"fmt"

	"github.com/dmora/tdlink"
)

// authFlow is the authorization machine's single serial consumer. Current
// handshake position is owned exclusively by this goroutine — transitions
// are never reordered and never run concurrently for one client.
type authFlow struct {
	client    *Client
	handler   AuthorizationHandler
	settings  Settings
	readySeen bool
	failed    bool
}

// authAction issues the follow-up request for one wait-state. The frame is
// the inner authorization-state object, passed to the handler as a snapshot.
type authAction func(*authFlow, tdlink.Frame) error

// authActions maps wait-state discriminants to the request that answers
// them. Terminal and informational states are handled in handle directly.
var authActions = map[string]authAction{
	authStateWaitParameters:    sendParameters,
	authStateWaitEncryptionKey: sendEncryptionKey,
	authStateWaitPhoneNumber:   sendPhoneNumber,
	authStateWaitCode:          sendCode,
	authStateWaitPassword:      sendPassword,
}

// run consumes the serial queue until the dispatch loop closes it. A queue
// that ends without reaching Ready resolves the wait as a clean close.
func (f *authFlow) run() {
	c := f.client
	defer close(c.authDone)

	for frame := range c.authQueue {
		if f.failed {
			continue // handshake already failed; drain so dispatch never blocks
		}
		if err := f.handle(frame); err != nil {
			if c.stopping() {
				continue // shutdown races look like errors; not a handshake failure
			}
			f.failed = true
			c.failHandshake(err)
		}
	}

	c.ready.resolve(tdlink.StateClosed, nil)
}

// handle processes one authorization update.
func (f *authFlow) handle(update tdlink.Frame) error {
	var env authorizationUpdate
	if err := update.Unmarshal(&env); err != nil {
		return err
	}
	state, err := tdlink.DecodeFrame(env.State)
	if err != nil {
		return fmt.Errorf("authorization state: %w", err)
	}

	c := f.client
	c.metrics.authState(state.Type)
	c.log.Debug("authorization state", "state", state.Type)

	switch state.Type {
	case authStateReady:
		return f.handleReady()

	case authStateClosed:
		c.setState(tdlink.StateClosed)
		c.ready.resolve(tdlink.StateClosed, nil)
		c.log.Info("authorization closed")
		return nil

	case authStateLoggingOut, authStateClosing, authStateWaitOtherDevice:
		// No local action: LoggingOut/Closing are lifecycle notices, and
		// other-device confirmation happens out-of-band. The next inbound
		// state drives the machine.
		return nil

	case authStateWaitRegistration:
		return fmt.Errorf("%w: %s not supported", tdlink.ErrProtocol, state.Type)
	}

	action, ok := authActions[state.Type]
	if !ok {
		return fmt.Errorf("%w: unknown authorization state %q", tdlink.ErrProtocol, state.Type)
	}
	return action(f, state)
}

// handleReady fires the success signal. A second Ready is a protocol
// anomaly — the component or the routing misbehaved — and must surface as
// an error rather than be ignored.
func (f *authFlow) handleReady() error {
	if f.readySeen {
		return fmt.Errorf("%w: authorization Ready received twice", tdlink.ErrProtocol)
	}
	f.readySeen = true
	f.client.setState(tdlink.StateOpened)
	f.client.ready.resolve(tdlink.StateOpened, nil)
	f.client.log.Info("authorization complete", "client_id", f.client.clientID)
	return nil
}

// send issues a handshake request through the regular call path, so the
// component's ok/error verdict is awaited before the next transition. The
// response travels through the correlator like any other call; shutdown
// unblocks it via slot cancellation.
func (f *authFlow) send(req any) error {
	_, err := f.client.Call(context.Background(), req)
	return err
}

func sendParameters(f *authFlow, _ tdlink.Frame) error {
	return f.send(setParametersRequest{Type: methodSetParameters, Parameters: f.settings})
}

func sendEncryptionKey(f *authFlow, state tdlink.Frame) error {
	key, err := f.handler.EncryptionKey(state)
	if err != nil {
		return fmt.Errorf("authorization handler: %w", err)
	}
	return f.send(checkEncryptionKeyRequest{Type: methodCheckEncryptionKey, EncryptionKey: key})
}

func sendPhoneNumber(f *authFlow, state tdlink.Frame) error {
	phone, err := f.handler.PhoneNumber(state)
	if err != nil {
		return fmt.Errorf("authorization handler: %w", err)
	}
	return f.send(setPhoneNumberRequest{Type: methodSetPhoneNumber, PhoneNumber: phone})
}

func sendCode(f *authFlow, state tdlink.Frame) error {
	code, err := f.handler.Code(state)
	if err != nil {
		return fmt.Errorf("authorization handler: %w", err)
	}
	return f.send(checkCodeRequest{Type: methodCheckCode, Code: code})
}

func sendPassword(f *authFlow, state tdlink.Frame) error {
	password, err := f.handler.Password(state)
	if err != nil {
		return fmt.Errorf("authorization handler: %w", err)
	}
	return f.send(checkPasswordRequest{Type: methodCheckPassword, Password: password})
}
