// Package jwt issues and verifies portal session tokens signed with HMAC-SHA256.
//
// # Verification order
//
// [Manager.Verify] checks structure and signature before anything else; every
// failure at that stage, including a malformed token or a single tampered byte,
// is reported as [ErrInvalidSignature]. Only a token whose signature verifies is
// checked for expiry, and an expired token is reported as [ErrExpired].
// Expiry is strict: a token is valid while exp > now, in whole seconds.
//
// # What this package must NOT do
//
//   - Embed permission sets in tokens (permissions are derived at verification time).
//   - Read secrets from the environment or any global state.
//   - Import the root portalAuth package.
package jwt
