package flows

import (
	"context"

	"github.com/MrEthical07/portalAuth/jwt"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	VerifyToken func(string) (*jwt.Claims, error)
	MetricInc   func(int)
	EmitAudit   func(ctx context.Context, event string, success bool, subjectID, role, reason string, meta func() map[string]string)

	LogoutMetric int
	LogoutEvent  string
}

// LogoutResult identifies who logged out, when the token still verifies.
type LogoutResult struct {
	SubjectID string
	Role      string
}

// RunLogout records a logout. There is no server-side session to delete: the
// caller clears both cookies regardless of what this returns, so logout is
// idempotent and never fails.
func RunLogout(ctx context.Context, token string, deps LogoutDeps) LogoutResult {
	var res LogoutResult
	if token != "" && deps.VerifyToken != nil {
		if claims, err := deps.VerifyToken(token); err == nil {
			res.SubjectID = claims.Subject
			res.Role = claims.Role
		}
	}
	if deps.MetricInc != nil {
		deps.MetricInc(deps.LogoutMetric)
	}
	if deps.EmitAudit != nil {
		deps.EmitAudit(ctx, deps.LogoutEvent, true, res.SubjectID, res.Role, "", nil)
	}
	return res
}
