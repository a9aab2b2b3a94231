package flows

import (
	"context"
	"errors"
	"strings"
)

// LoginAccount is a flow-local account model.
type LoginAccount struct {
	SubjectID    string
	Identifier   string
	PasswordHash string
	Role         string
	DepartmentID string
	Active       bool
}

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	SubjectID    string
	Role         string
	DepartmentID string
	Permissions  []string
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginRateLimited int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	LoginRateLimited   error
}

// LoginDeps captures credential verification dependencies.
type LoginDeps struct {
	ClientIPFromContext func(context.Context) string

	// CheckLoginRate returns non-nil only when the caller is throttled.
	CheckLoginRate     func(context.Context, string, string) error
	IncrementLoginRate func(context.Context, string, string)
	ResetLoginRate     func(context.Context, string)

	// FindAccount returns (nil, nil) when the identifier is unknown.
	FindAccount        func(context.Context, string) (*LoginAccount, error)
	KnownRole          func(string) bool
	VerifyPassword     func(string, string) (bool, error)
	DummyDigest        func() string
	PermissionsForRole func(context.Context, string) ([]string, error)
	FallbackPerms      func(string) []string
	TouchLastLogin     func(context.Context, string) error

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, subjectID, role, reason string, meta func() map[string]string)
	Warn      func(string, ...any)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin verifies identifier and password against the directory and returns
// the principal data on success.
//
// Every failure kind (unknown user, inactive account, wrong password,
// directory or hasher error) collapses into Errors.InvalidCredentials; the
// specific reason is only logged and audited.
func RunLogin(ctx context.Context, identifier, password string, deps LoginDeps) (*LoginResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, string, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.FindAccount == nil || deps.VerifyPassword == nil || deps.KnownRole == nil {
		return nil, deps.Errors.EngineNotReady
	}

	identifier = strings.TrimSpace(identifier)
	ip := deps.ClientIPFromContext(ctx)
	identMeta := func() map[string]string { return map[string]string{"identifier": identifier} }

	if identifier == "" || password == "" {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", "", "empty_input", identMeta)
		return nil, deps.Errors.InvalidCredentials
	}

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, identifier, ip); err != nil {
			deps.MetricInc(deps.Metrics.LoginRateLimited)
			deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, "", "", "rate_limited", identMeta)
			return nil, deps.Errors.LoginRateLimited
		}
	}

	fail := func(subjectID, role, reason string) (*LoginResult, error) {
		if deps.IncrementLoginRate != nil {
			deps.IncrementLoginRate(ctx, identifier, ip)
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, subjectID, role, reason, identMeta)
		return nil, deps.Errors.InvalidCredentials
	}

	account, err := deps.FindAccount(ctx, identifier)
	if err != nil {
		deps.Warn("portalAuth: directory lookup failed", "error", err)
		burnDummy(password, deps)
		return fail("", "", "directory_error")
	}
	if account == nil {
		burnDummy(password, deps)
		return fail("", "", "user_not_found")
	}
	if !account.Active {
		burnDummy(password, deps)
		return fail(account.SubjectID, account.Role, "inactive")
	}

	ok, err := deps.VerifyPassword(password, account.PasswordHash)
	password = ""
	if err != nil {
		deps.Warn("portalAuth: password digest unusable", "subject_id", account.SubjectID, "error", err)
		return fail(account.SubjectID, account.Role, "hasher_error")
	}
	if !ok {
		return fail(account.SubjectID, account.Role, "password_mismatch")
	}

	if !deps.KnownRole(account.Role) {
		deps.Warn("portalAuth: account carries unknown role", "subject_id", account.SubjectID, "role", account.Role)
		return fail(account.SubjectID, account.Role, "unknown_role")
	}

	perms := resolvePermissions(ctx, account.Role, deps)

	if deps.ResetLoginRate != nil {
		deps.ResetLoginRate(ctx, identifier)
	}
	if deps.TouchLastLogin != nil {
		if err := deps.TouchLastLogin(ctx, account.SubjectID); err != nil && !errors.Is(err, context.Canceled) {
			deps.Warn("portalAuth: last login update failed", "subject_id", account.SubjectID, "error", err)
		}
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, account.SubjectID, account.Role, "", nil)

	return &LoginResult{
		SubjectID:    account.SubjectID,
		Role:         account.Role,
		DepartmentID: account.DepartmentID,
		Permissions:  perms,
	}, nil
}

func resolvePermissions(ctx context.Context, role string, deps LoginDeps) []string {
	if deps.PermissionsForRole != nil {
		perms, err := deps.PermissionsForRole(ctx, role)
		if err == nil && len(perms) > 0 {
			return perms
		}
		if err != nil {
			deps.Warn("portalAuth: directory permissions lookup failed, using table", "role", role, "error", err)
		}
	}
	if deps.FallbackPerms != nil {
		return deps.FallbackPerms(role)
	}
	return nil
}

// burnDummy spends one hash verification so that misses cost the same as hits.
func burnDummy(password string, deps LoginDeps) {
	if deps.DummyDigest == nil {
		return
	}
	digest := deps.DummyDigest()
	if digest == "" {
		return
	}
	_, _ = deps.VerifyPassword(password, digest)
}
