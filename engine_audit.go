package portalAuth

import (
	"context"
	"log/slog"
	"time"
)

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginRateLimited   = "login_rate_limited"
	auditEventLogout             = "logout"
	auditEventTokenRefreshed     = "token_refreshed"
	auditEventTokenRejected      = "token_rejected"
	auditEventCookieDesync       = "cookie_desync"
	auditEventRedirectLoopBroken = "redirect_loop_broken"
	auditEventPermissionDenied   = "permission_denied"
)

// GatewayOutcome is the terminal state of one gateway decision.
type GatewayOutcome string

const (
	GatewayOutcomePublic          GatewayOutcome = "public"
	GatewayOutcomeAllowed         GatewayOutcome = "allowed"
	GatewayOutcomeUnauthenticated GatewayOutcome = "unauthenticated"
	GatewayOutcomeTokenRejected   GatewayOutcome = "token_rejected"
	GatewayOutcomeForbidden       GatewayOutcome = "forbidden"
	GatewayOutcomeDesynchronized  GatewayOutcome = "desynchronized"
	GatewayOutcomeLoopBroken      GatewayOutcome = "loop_broken"
	GatewayOutcomeLoginRedirect   GatewayOutcome = "login_redirect"
)

// GatewayEvent describes one gateway decision for metrics, audit and logs.
type GatewayEvent struct {
	Outcome   GatewayOutcome
	Method    string
	Path      string
	SubjectID string
	Role      Role
	TokenID   string
	// Reason is internal detail ("expired", "invalid_signature", ...). Never sent to clients.
	Reason    string
	Refreshed bool
	Latency   time.Duration
}

// RecordGateway counts, audits and logs one gateway decision.
func (e *Engine) RecordGateway(ctx context.Context, ev GatewayEvent) {
	if e == nil {
		return
	}

	switch ev.Outcome {
	case GatewayOutcomePublic:
		e.metricInc(MetricGatewayPublic)
	case GatewayOutcomeAllowed:
		e.metricInc(MetricGatewayAllowed)
	case GatewayOutcomeUnauthenticated:
		e.metricInc(MetricGatewayUnauthenticated)
	case GatewayOutcomeTokenRejected:
		e.metricInc(MetricGatewayUnauthenticated)
		e.emitAudit(ctx, auditEventTokenRejected, false, ev, nil)
	case GatewayOutcomeForbidden:
		e.metricInc(MetricGatewayForbidden)
		e.emitAudit(ctx, auditEventPermissionDenied, false, ev, nil)
	case GatewayOutcomeDesynchronized:
		e.metricInc(MetricCookieDesync)
		e.metricInc(MetricGatewayUnauthenticated)
		e.emitAudit(ctx, auditEventCookieDesync, false, ev, nil)
	case GatewayOutcomeLoopBroken:
		e.metricInc(MetricRedirectLoopBroken)
		e.emitAudit(ctx, auditEventRedirectLoopBroken, false, ev, nil)
	case GatewayOutcomeLoginRedirect:
		e.metricInc(MetricLoginPageRedirect)
	}
	if ev.Refreshed {
		e.emitAudit(ctx, auditEventTokenRefreshed, true, ev, nil)
	}
	if ev.Latency > 0 {
		e.metrics.Observe(MetricGatewayLatency, ev.Latency)
	}

	level := slog.LevelDebug
	switch ev.Outcome {
	case GatewayOutcomeLoopBroken, GatewayOutcomeDesynchronized:
		level = slog.LevelWarn
	case GatewayOutcomeForbidden, GatewayOutcomeTokenRejected:
		level = slog.LevelInfo
	}
	e.logger.LogAttrs(ctx, level, "gateway decision",
		slog.String("outcome", string(ev.Outcome)),
		slog.String("path", ev.Path),
		slog.String("reason", ev.Reason),
		slog.Bool("refreshed", ev.Refreshed),
		slog.Duration("latency", ev.Latency),
	)
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	ev GatewayEvent,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if ev.Method != "" {
		if metadata == nil {
			metadata = map[string]string{}
		}
		metadata["method"] = ev.Method
	}

	e.audit.Emit(ctx, AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		SubjectID: ev.SubjectID,
		Role:      string(ev.Role),
		TokenID:   ev.TokenID,
		IP:        clientIPFromContext(ctx),
		Path:      ev.Path,
		Success:   success,
		Reason:    ev.Reason,
		Metadata:  metadata,
	})
}

// emitFlowAudit adapts the flow callback signature to emitAudit.
func (e *Engine) emitFlowAudit(ctx context.Context, event string, success bool, subjectID, role, reason string, meta func() map[string]string) {
	e.emitAudit(ctx, event, success, GatewayEvent{
		SubjectID: subjectID,
		Role:      Role(role),
		Reason:    reason,
	}, meta)
}
