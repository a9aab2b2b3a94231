package portalAuth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/MrEthical07/portalAuth/internal/audit"
	"github.com/MrEthical07/portalAuth/internal/flows"
	"github.com/MrEthical07/portalAuth/internal/rate"
	"github.com/MrEthical07/portalAuth/jwt"
	"github.com/MrEthical07/portalAuth/permission"
	"github.com/MrEthical07/portalAuth/route"
	"github.com/google/uuid"
)

// Engine is the session authentication core. It is immutable after [Builder.Build]
// and safe for concurrent use.
type Engine struct {
	config    Config
	table     *permission.Table
	routes    *route.Table
	tokens    *jwt.Manager
	hasher    PasswordHasher
	directory UserDirectory
	limiter   *rate.Limiter
	audit     *audit.Dispatcher
	metrics   *Metrics
	logger    *slog.Logger
	now       func() time.Time
	flow      flows.Service

	// dummyDigest is verified against on misses so unknown accounts cost a
	// full hash comparison. Set once in Build; empty if hashing failed.
	dummyDigest string
}

// Close drains the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditStats reports audit delivery counters, including drops per event type.
func (e *Engine) AuditStats() AuditStats {
	if e == nil {
		return AuditStats{DroppedByType: map[string]uint64{}}
	}
	return e.audit.Stats()
}

// MetricsSnapshot returns a copy of the in-process counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Logger returns the engine logger. It decorates records with request and auth data from ctx.
func (e *Engine) Logger() *slog.Logger {
	if e == nil || e.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.logger
}

// GatewayConfig returns the gateway section of the engine configuration.
func (e *Engine) GatewayConfig() GatewayConfig { return e.config.Gateway }

// CookieConfig returns the cookie section with Secure resolved against ProductionMode.
func (e *Engine) CookieConfig() CookieConfig {
	c := e.config.Cookie
	c.Secure = e.config.secureCookies()
	return c
}

// TokenTTL is the lifetime of freshly issued session tokens.
func (e *Engine) TokenTTL() time.Duration { return e.config.Token.TTL }

// Login verifies identifier and password and returns the principal.
//
// Every failure other than throttling is reported as [ErrInvalidCredentials];
// the specific cause is logged and audited only.
func (e *Engine) Login(ctx context.Context, identifier, password string) (*Principal, error) {
	if e == nil || !e.flow.Initialized() {
		return nil, ErrEngineNotReady
	}
	res, err := e.flow.Login(ctx, identifier, password)
	if err != nil {
		return nil, err
	}
	return &Principal{
		SubjectID:    res.SubjectID,
		Role:         Role(res.Role),
		DepartmentID: res.DepartmentID,
		Permissions:  res.Permissions,
	}, nil
}

// LoginSession runs [Engine.Login] and issues a session for the result.
func (e *Engine) LoginSession(ctx context.Context, identifier, password string) (*Session, error) {
	p, err := e.Login(ctx, identifier, password)
	if err != nil {
		return nil, err
	}
	return e.IssueSession(ctx, *p)
}

// IssueSession signs a full-TTL token for p.
func (e *Engine) IssueSession(ctx context.Context, p Principal) (*Session, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	if !knownRole(string(p.Role)) {
		return nil, ErrUnknownRole
	}
	token, claims, err := e.tokens.Issue(jwt.Subject{
		ID:           p.SubjectID,
		Role:         string(p.Role),
		DepartmentID: p.DepartmentID,
	}, e.config.Token.TTL)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricTokenIssued)
	e.logger.DebugContext(ctx, "session issued", "subject_id", p.SubjectID, "token_id", claims.ID)

	return &Session{
		Token:     token,
		TokenID:   claims.ID,
		Principal: p,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// VerifySession authenticates a session token and derives the principal.
//
// It returns [ErrUnauthenticated] for an empty token, [ErrExpired] for a valid but
// expired token and [ErrInvalidSignature] for everything else. Permissions are
// always derived from the permission table, never read from the token.
func (e *Engine) VerifySession(ctx context.Context, token string) (*Verification, error) {
	if e == nil || !e.flow.Initialized() {
		return nil, ErrEngineNotReady
	}
	res := e.flow.Verify(ctx, token)
	switch res.Failure {
	case flows.VerifyFailureNone:
	case flows.VerifyFailureMissing:
		return nil, ErrUnauthenticated
	case flows.VerifyFailureExpired:
		return nil, ErrExpired
	case flows.VerifyFailureUnknownRole:
		e.logger.WarnContext(ctx, "signed token carries unknown role")
		return nil, ErrInvalidSignature
	default:
		return nil, ErrInvalidSignature
	}

	c := res.Claims
	return &Verification{
		Principal: Principal{
			SubjectID:    c.Subject,
			Role:         Role(c.Role),
			DepartmentID: c.DepartmentID,
			Permissions:  res.Permissions,
		},
		TokenID:      c.ID,
		ExpiresAt:    c.ExpiresAt.Time,
		NeedsRefresh: res.NeedsRefresh,
	}, nil
}

// RefreshSession re-issues a full-TTL token for an already verified session.
func (e *Engine) RefreshSession(ctx context.Context, v *Verification) (*Session, error) {
	if v == nil {
		return nil, ErrUnauthenticated
	}
	s, err := e.IssueSession(ctx, v.Principal)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricTokenRefreshed)
	return s, nil
}

// Logout records the end of a session. Clearing cookies is the caller's job;
// logout never fails and may be repeated.
func (e *Engine) Logout(ctx context.Context, token string) {
	if e == nil || !e.flow.Initialized() {
		return
	}
	res := e.flow.Logout(ctx, token)
	e.logger.DebugContext(ctx, "logout", "subject_id", res.SubjectID)
}

// Classify resolves the route rule for a request.
func (e *Engine) Classify(method, path string) route.Classification {
	return e.routes.Classify(method, path)
}

// Authorize is the single access decision for a classified request.
//
// A public route admits anyone. A protected route requires p and then, when
// set, a RequiredRoles match and a permission-table grant for Resource/Action.
func (e *Engine) Authorize(p *Principal, c route.Classification) error {
	if !c.RequiresAuth() {
		return nil
	}
	if p == nil {
		return ErrUnauthenticated
	}
	if !c.AdmitsRole(string(p.Role)) {
		return ErrInsufficientPermission
	}
	if c.Resource != "" && !e.table.Allows(string(p.Role), c.Resource, c.Action) {
		return ErrInsufficientPermission
	}
	return nil
}

// Allows reports whether role may perform action on resource.
func (e *Engine) Allows(role Role, resource string, action permission.Action) bool {
	return e.table.Allows(string(role), resource, action)
}

// PermissionsFor returns the sorted permission set the table grants role.
func (e *Engine) PermissionsFor(role Role) []string {
	return e.table.PermissionsFor(string(role))
}

// HashPassword derives a digest with the engine's hasher, for seeding accounts.
func (e *Engine) HashPassword(plaintext string) (string, error) {
	if e == nil || e.hasher == nil {
		return "", ErrEngineNotReady
	}
	return e.hasher.Hash(plaintext)
}

func (e *Engine) findAccount(ctx context.Context, identifier string) (*flows.LoginAccount, error) {
	acc, err := e.directory.FindByIdentifier(ctx, identifier)
	if err != nil || acc == nil {
		return nil, err
	}
	return &flows.LoginAccount{
		SubjectID:    acc.SubjectID,
		Identifier:   acc.Identifier,
		PasswordHash: acc.PasswordHash,
		Role:         string(acc.Role),
		DepartmentID: acc.DepartmentID,
		Active:       acc.Active,
	}, nil
}

// prepareDummy derives the miss-path digest with the configured hasher.
func (e *Engine) prepareDummy() {
	d, err := e.hasher.Hash("dummy-" + uuid.NewString())
	if err != nil {
		e.logger.Warn("dummy digest unavailable, login timing may leak account existence", "error", err)
		return
	}
	e.dummyDigest = d
}

func (e *Engine) dummy() string { return e.dummyDigest }

func (e *Engine) checkLoginRate(ctx context.Context, identifier, ip string) error {
	if e.limiter == nil {
		return nil
	}
	err := e.limiter.CheckLogin(ctx, normalizeIdentifier(identifier), ip)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return err
	default:
		e.logger.WarnContext(ctx, "login throttle unavailable", "error", err)
		return nil
	}
}

func (e *Engine) incrementLoginRate(ctx context.Context, identifier, ip string) {
	if e.limiter == nil {
		return
	}
	if err := e.limiter.IncrementLogin(ctx, normalizeIdentifier(identifier), ip); err != nil {
		e.logger.WarnContext(ctx, "login throttle increment failed", "error", err)
	}
}

func (e *Engine) resetLoginRate(ctx context.Context, identifier string) {
	if e.limiter == nil {
		return
	}
	if err := e.limiter.ResetLogin(ctx, normalizeIdentifier(identifier)); err != nil {
		e.logger.WarnContext(ctx, "login throttle reset failed", "error", err)
	}
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
