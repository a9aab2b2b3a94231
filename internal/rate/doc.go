// Package rate provides the Redis-backed fixed-window login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + EXPIRE on the first hit of a window. Only
// failed attempts are counted; a successful login clears the identifier's
// window. Identifiers are hashed before they become key material so raw
// login names never land in Redis. Key prefixes:
//   - "pl:" login per identifier
//   - "pli:" login per client IP
//
// # What this package must NOT do
//
//   - Cache login outcomes or short-circuit credential checks.
//   - Be imported outside the portalAuth module.
package rate
