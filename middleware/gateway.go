package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/internal/logctx"
	"github.com/MrEthical07/portalAuth/route"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/MrEthical07/portalAuth/middleware"

// Option configures [Gateway].
type Option func(*gatewayOptions)

type gatewayOptions struct {
	tracer trace.Tracer
	now    func() time.Time
}

// WithTracerProvider sets the provider gateway spans are started on.
// The default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *gatewayOptions) {
		if tp != nil {
			o.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithClock overrides the latency clock.
func WithClock(now func() time.Time) Option {
	return func(o *gatewayOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// Gateway returns the session gateway middleware.
//
// Every request moves through classify, extract, verify, authorize and respond.
// Protected API requests that fail get a JSON 401 or 403. Protected browser
// requests that fail are redirected to the login page with a loop counter; once
// the counter exceeds GatewayConfig.MaxRedirects the request is passed through
// with no principal instead of being redirected again.
func Gateway(engine *portalAuth.Engine, opts ...Option) func(http.Handler) http.Handler {
	o := gatewayOptions{
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		if engine == nil {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				WriteJSONError(w, http.StatusUnauthorized, "unauthenticated")
			})
		}
		g := &gateway{engine: engine, cfg: engine.GatewayConfig(), next: next, opts: o}
		return http.HandlerFunc(g.serve)
	}
}

type gateway struct {
	engine *portalAuth.Engine
	cfg    portalAuth.GatewayConfig
	next   http.Handler
	opts   gatewayOptions
}

// exchange is the state of one request as it moves through the gateway.
type exchange struct {
	w       http.ResponseWriter
	r       *http.Request
	start   time.Time
	class   route.Classification
	api     bool
	loop    int
	cookies portalAuth.SessionCookies
	span    trace.Span
}

func (g *gateway) serve(w http.ResponseWriter, r *http.Request) {
	start := g.opts.now()

	ctx, span := g.opts.tracer.Start(r.Context(), "portal.gateway",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
		),
	)
	defer span.End()

	ctx = portalAuth.WithClientIP(ctx, clientIP(r))
	ctx = logctx.WithRequestData(ctx, &logctx.RequestData{
		RequestID:  chimw.GetReqID(ctx),
		Method:     r.Method,
		Path:       r.URL.Path,
		RemoteAddr: r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	})
	r = r.WithContext(ctx)

	x := &exchange{
		w:       w,
		r:       r,
		start:   start,
		class:   g.engine.Classify(r.Method, r.URL.Path),
		loop:    loopCount(r, g.cfg),
		cookies: g.engine.ReadSessionCookies(r),
		span:    span,
	}
	x.api = x.class.API || PrefersJSON(r)
	span.SetAttributes(
		attribute.String("portal.route", x.class.Prefix),
		attribute.Bool("portal.api", x.api),
		attribute.Int("portal.redirect_count", x.loop),
	)

	if isLoginPage(r, g.cfg) {
		g.serveLoginPage(x)
		return
	}
	if !x.class.RequiresAuth() {
		g.record(x, portalAuth.GatewayEvent{Outcome: portalAuth.GatewayOutcomePublic})
		g.next.ServeHTTP(w, r)
		return
	}
	g.serveProtected(x)
}

func (g *gateway) serveProtected(x *exchange) {
	token, fromCookie := x.cookies.Token, x.cookies.Token != ""
	if token == "" && g.cfg.AllowBearer {
		token, _ = bearerToken(x.r.Header.Get("Authorization"))
	}

	if token == "" {
		if x.cookies.State == portalAuth.CookiesDesynchronized {
			g.engine.ClearStatusCookie(x.w)
			g.unauthenticated(x, portalAuth.GatewayEvent{
				Outcome: portalAuth.GatewayOutcomeDesynchronized,
				Reason:  desyncReason(x.cookies),
			})
			return
		}
		g.unauthenticated(x, portalAuth.GatewayEvent{
			Outcome: portalAuth.GatewayOutcomeUnauthenticated,
			Reason:  "no_token",
		})
		return
	}

	v, err := g.engine.VerifySession(x.r.Context(), token)
	if err != nil {
		if fromCookie {
			g.engine.ClearSessionCookies(x.w)
		}
		g.unauthenticated(x, portalAuth.GatewayEvent{
			Outcome: portalAuth.GatewayOutcomeTokenRejected,
			Reason:  rejectReason(err),
		})
		return
	}

	p := &v.Principal
	ev := portalAuth.GatewayEvent{
		SubjectID: p.SubjectID,
		Role:      p.Role,
		TokenID:   v.TokenID,
	}

	if err := g.engine.Authorize(p, x.class); err != nil {
		ev.Outcome = portalAuth.GatewayOutcomeForbidden
		ev.Reason = "insufficient_permission"
		g.record(x, ev)
		if x.api {
			WriteJSONError(x.w, http.StatusForbidden, "forbidden")
			return
		}
		redirect(x.w, x.r, g.cfg.UnauthorizedPath)
		return
	}

	if fromCookie {
		switch {
		case v.NeedsRefresh:
			s, err := g.engine.RefreshSession(x.r.Context(), v)
			if err != nil {
				g.engine.Logger().WarnContext(x.r.Context(), "session refresh failed", "error", err)
			} else {
				g.engine.WriteSessionCookies(x.w, s)
				ev.Refreshed = true
				ev.TokenID = s.TokenID
			}
		case x.cookies.State == portalAuth.CookiesTokenOnly:
			g.engine.RestoreStatusCookie(x.w, v)
		}
	}

	ev.Outcome = portalAuth.GatewayOutcomeAllowed
	g.record(x, ev)

	ctx := portalAuth.WithPrincipal(x.r.Context(), p)
	ctx = logctx.WithAuthData(ctx, &logctx.AuthData{
		SubjectID: p.SubjectID,
		Role:      string(p.Role),
		Route:     x.class.Prefix,
	})
	g.next.ServeHTTP(x.w, x.r.WithContext(ctx))
}

// unauthenticated answers a protected request that carries no usable session.
func (g *gateway) unauthenticated(x *exchange, ev portalAuth.GatewayEvent) {
	if x.api {
		g.record(x, ev)
		WriteJSONError(x.w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	if x.loop > g.cfg.MaxRedirects {
		g.breakLoop(x, ev.Reason)
		return
	}
	g.record(x, ev)
	redirect(x.w, x.r, loginLocation(x.r, g.cfg, x.loop))
}

// serveLoginPage sends authenticated browsers on to the landing page and
// clears stale cookies for everyone else before rendering the form.
func (g *gateway) serveLoginPage(x *exchange) {
	if x.cookies.Token == "" {
		if x.cookies.State == portalAuth.CookiesDesynchronized {
			g.engine.ClearStatusCookie(x.w)
		}
		g.record(x, portalAuth.GatewayEvent{Outcome: portalAuth.GatewayOutcomePublic})
		g.next.ServeHTTP(x.w, x.r)
		return
	}

	v, err := g.engine.VerifySession(x.r.Context(), x.cookies.Token)
	if err != nil {
		g.engine.ClearSessionCookies(x.w)
		g.record(x, portalAuth.GatewayEvent{
			Outcome: portalAuth.GatewayOutcomePublic,
			Reason:  rejectReason(err),
		})
		g.next.ServeHTTP(x.w, x.r)
		return
	}

	if x.loop > g.cfg.MaxRedirects {
		g.breakLoop(x, "login_page")
		return
	}
	g.record(x, portalAuth.GatewayEvent{
		Outcome:   portalAuth.GatewayOutcomeLoginRedirect,
		SubjectID: v.Principal.SubjectID,
		Role:      v.Principal.Role,
		TokenID:   v.TokenID,
	})
	redirect(x.w, x.r, landingLocation(g.cfg, x.loop))
}

// breakLoop lets a request through without a principal instead of redirecting again.
func (g *gateway) breakLoop(x *exchange, reason string) {
	g.record(x, portalAuth.GatewayEvent{
		Outcome: portalAuth.GatewayOutcomeLoopBroken,
		Reason:  reason,
	})
	g.next.ServeHTTP(x.w, x.r)
}

func (g *gateway) record(x *exchange, ev portalAuth.GatewayEvent) {
	ev.Method = x.r.Method
	ev.Path = x.r.URL.Path
	ev.Latency = g.opts.now().Sub(x.start)
	x.span.SetAttributes(
		attribute.String("portal.outcome", string(ev.Outcome)),
		attribute.Bool("portal.refreshed", ev.Refreshed),
	)
	if ev.Role != "" {
		x.span.SetAttributes(attribute.String("portal.role", string(ev.Role)))
	}
	if ev.Reason != "" {
		x.span.SetAttributes(attribute.String("portal.reason", ev.Reason))
	}
	g.engine.RecordGateway(x.r.Context(), ev)
}

func isLoginPage(r *http.Request, cfg portalAuth.GatewayConfig) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	return strings.TrimRight(r.URL.Path, "/") == strings.TrimRight(cfg.LoginPath, "/")
}

// desyncReason separates the status markers the portal writes from values
// it never issued.
func desyncReason(c portalAuth.SessionCookies) string {
	if !c.KnownStatus() {
		return "unrecognized_status"
	}
	return portalAuth.ErrCookieDesynchronized.Error()
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, portalAuth.ErrExpired):
		return "expired"
	case errors.Is(err, portalAuth.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "invalid"
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
