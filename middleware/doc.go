// Package middleware exposes the session gateway and per-handler guards built on
// top of portalAuth.Engine.
//
// # Gateway
//
// [Gateway] runs once per request, before any handler. It classifies the path,
// reads the two session cookies (falling back to a bearer header for API
// clients), verifies the token, checks the permission table, slides the session
// forward when it nears expiry and breaks redirect loops caused by stale cookies.
//
// # Guards
//
//   - [RequireAuthenticated] rejects requests without a principal.
//   - [RequirePermission] checks one resource/action pair.
//
// Guards assume the Gateway already ran; they only read the principal from the
// request context.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Perform any I/O besides writing response headers.
//   - Tell clients why a token was rejected.
package middleware
