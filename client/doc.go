// Package client implements the tdlink runtime: a concurrent, per-call
// asynchronous facade over a native component's single-consumer JSON frame
// channel.
//
// # Architecture
//
// The [Client] owns three cooperating pieces:
//
//   - a correlator mapping "@extra" tokens to single-use delivery slots,
//     so concurrent calls can share one receive stream;
//   - a dispatch loop — the sole caller of Transport.Receive — that decodes
//     each inbound frame and routes it to the correlator, the authorization
//     machine, or the update sink, in arrival order;
//   - an authorization state machine that consumes authorization-state
//     updates on a serial queue and issues the follow-up requests needed to
//     reach Ready, pausing on an [AuthorizationHandler] for user secrets.
//
// The blocking Receive call lives on its own goroutine, so it never stalls
// callers awaiting correlated responses. Callers interact only through
// [Client.Call], [Client.WaitUntilReady], [Client.Updates] and
// [Client.Stop].
package client
