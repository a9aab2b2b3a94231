// Package audit implements async event dispatching for authentication decisions.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, slog, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: audit record with timestamp, type, subject, role, token id, path, reason.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; that belongs to the Engine and the gateway.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import portalAuth or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
