package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/portalAuth/jwt"
)

// VerifyFailureKind classifies verification failures for root-level mapping.
type VerifyFailureKind int

const (
	VerifyFailureNone VerifyFailureKind = iota
	VerifyFailureMissing
	VerifyFailureInvalidSignature
	VerifyFailureExpired
	VerifyFailureUnknownRole
)

// VerifyResult returns either verified claims or a classified failure.
type VerifyResult struct {
	Failure      VerifyFailureKind
	Claims       *jwt.Claims
	Permissions  []string
	NeedsRefresh bool
}

// VerifyMetrics carries metric IDs needed by the verify flow.
type VerifyMetrics struct {
	TokenVerified         int
	TokenInvalidSignature int
	TokenExpired          int
}

// VerifyDeps captures token verification dependencies.
type VerifyDeps struct {
	VerifyToken      func(string) (*jwt.Claims, error)
	KnownRole        func(string) bool
	PermissionsFor   func(string) []string
	Now              func() time.Time
	RefreshThreshold time.Duration

	MetricInc func(int)
	Metrics   VerifyMetrics
}

// RunVerify checks a session token and derives the holder's permissions.
// Permissions always come from the current table, never from the token.
func RunVerify(_ context.Context, token string, deps VerifyDeps) VerifyResult {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if token == "" {
		return VerifyResult{Failure: VerifyFailureMissing}
	}

	claims, err := deps.VerifyToken(token)
	switch {
	case errors.Is(err, jwt.ErrExpired):
		deps.MetricInc(deps.Metrics.TokenExpired)
		return VerifyResult{Failure: VerifyFailureExpired}
	case err != nil:
		deps.MetricInc(deps.Metrics.TokenInvalidSignature)
		return VerifyResult{Failure: VerifyFailureInvalidSignature}
	}

	// A correctly signed token naming a role the table no longer knows is
	// treated like a forgery: it cannot be turned into a principal.
	if deps.KnownRole != nil && !deps.KnownRole(claims.Role) {
		deps.MetricInc(deps.Metrics.TokenInvalidSignature)
		return VerifyResult{Failure: VerifyFailureUnknownRole}
	}

	deps.MetricInc(deps.Metrics.TokenVerified)

	var perms []string
	if deps.PermissionsFor != nil {
		perms = deps.PermissionsFor(claims.Role)
	}
	remaining := claims.ExpiresAt.Time.Sub(deps.Now())
	return VerifyResult{
		Claims:       claims,
		Permissions:  perms,
		NeedsRefresh: deps.RefreshThreshold > 0 && remaining < deps.RefreshThreshold,
	}
}
