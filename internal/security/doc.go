// Package security lints the engine's security posture.
//
// [Lint] never fails a build; weak settings that Config.Validate accepts are
// reported as warnings on the security report.
package security
