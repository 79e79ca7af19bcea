// Package tdlink provides the shared vocabulary for a concurrent client
// runtime over a tdjson-style native component.
//
// tdlink turns a single-consumer, JSON-framed request/response channel into
// a per-call asynchronous API. The native component exposes three primitives
// (send, receive, execute) on opaque JSON frames and gives no per-call
// routing beyond an optional "@extra" correlation token; frames may arrive
// out of order or entirely unsolicited.
//
// # Core Types
//
//   - [Transport] — the three native primitives (collaborator-provided)
//   - [Frame] — one decoded JSON message with its "@type" discriminant
//   - [ClientState] — the observable lifecycle of one client identity
//   - [RemoteError] — a structured error frame returned by the component
//
// The runtime itself — correlator, dispatch loop, authorization state
// machine, client facade — lives in the client subpackage. A scripted fake
// Transport and a compliance suite for real implementations live in
// transporttest.
//
// # Quick Start
//
//	c, err := client.New(transport, clientID, settings,
//	    client.WithHandler(client.NewTermHandler()))
//	if err != nil { log.Fatal(err) }
//	c.Start()
//	state, err := c.WaitUntilReady(ctx)
//	if err != nil { log.Fatal(err) }
//	frame, err := c.Call(ctx, map[string]any{"@type": "getMe"})
package tdlink
