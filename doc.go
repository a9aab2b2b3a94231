// Package portalAuth is the session authentication and authorization core of the
// faculty portal: it verifies credentials, issues and verifies signed session
// tokens, and decides whether a principal may act on a resource.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build]. Everything the
// engine decides with (token secret, permission table, route table) is fixed at Build
// time; nothing is read from the environment afterwards.
//
// # Architecture boundaries
//
// portalAuth is the public surface. It exposes [Engine], [Builder], [Config], the
// [Principal] and [Session] value types, and the two-cookie session state
// ([SessionCookies]). Flow orchestration, rate limiting, audit dispatch and log
// decoration live under internal/ and are never exported. The HTTP gateway lives in
// the middleware package and only calls Engine methods.
//
// # What this package must NOT do
//
//   - Store sessions server side; a session is exactly its signed token.
//   - Offer any login path that skips the credential verifier.
//   - Embed permissions in tokens; they are derived from the table on every verification.
//
// # Performance contract
//
// VerifySession is the hot path. It performs no I/O: one HMAC check and one
// permission-table lookup. Login is allowed one directory read, one hash
// verification, one best-effort directory write and, when throttling is
// enabled, a few Redis round-trips.
package portalAuth
