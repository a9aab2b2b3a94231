// Package route classifies request paths against a static rule table.
//
// Matching is longest-prefix on path segments: the rule "/admin" matches
// "/admin" and "/admin/users" but not "/administrator". A path no rule
// matches is protected when it is API-shaped (under the API prefix) and
// public otherwise.
package route
