package internaldefs

import (
	portalAuth "github.com/MrEthical07/portalAuth"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   portalAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   portalAuth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: portalAuth.MetricLoginSuccess, Name: "portal_login_success_total", Help: "Successful logins."},
	{ID: portalAuth.MetricLoginFailure, Name: "portal_login_failure_total", Help: "Rejected logins."},
	{ID: portalAuth.MetricLoginRateLimited, Name: "portal_login_rate_limited_total", Help: "Logins refused by the throttle."},
	{ID: portalAuth.MetricTokenIssued, Name: "portal_token_issued_total", Help: "Session tokens issued."},
	{ID: portalAuth.MetricTokenVerified, Name: "portal_token_verified_total", Help: "Session tokens verified."},
	{ID: portalAuth.MetricTokenInvalidSignature, Name: "portal_token_invalid_signature_total", Help: "Session tokens rejected as forged or malformed."},
	{ID: portalAuth.MetricTokenExpired, Name: "portal_token_expired_total", Help: "Session tokens rejected as expired."},
	{ID: portalAuth.MetricTokenRefreshed, Name: "portal_token_refreshed_total", Help: "Sliding session refreshes."},
	{ID: portalAuth.MetricLogout, Name: "portal_logout_total", Help: "Logout requests."},
	{ID: portalAuth.MetricGatewayPublic, Name: "portal_gateway_public_total", Help: "Requests to public routes."},
	{ID: portalAuth.MetricGatewayAllowed, Name: "portal_gateway_allowed_total", Help: "Protected requests allowed."},
	{ID: portalAuth.MetricGatewayUnauthenticated, Name: "portal_gateway_unauthenticated_total", Help: "Protected requests without a usable session."},
	{ID: portalAuth.MetricGatewayForbidden, Name: "portal_gateway_forbidden_total", Help: "Protected requests denied by the permission table."},
	{ID: portalAuth.MetricCookieDesync, Name: "portal_cookie_desync_total", Help: "Requests whose status cookie outlived the session cookie."},
	{ID: portalAuth.MetricRedirectLoopBroken, Name: "portal_redirect_loop_broken_total", Help: "Requests passed through by the redirect-loop breaker."},
	{ID: portalAuth.MetricLoginPageRedirect, Name: "portal_login_page_redirect_total", Help: "Authenticated visits to the login page sent to the landing page."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: portalAuth.MetricGatewayLatency, Name: "portal_gateway_latency_seconds", Help: "Gateway decision latency."},
}

// BucketCount is the number of histogram buckets including +Inf.
const BucketCount = len(portalAuth.HistogramBucketBounds) + 1

// HistogramBounds are the finite upper bounds in seconds.
var HistogramBounds = func() []float64 {
	out := make([]float64, len(portalAuth.HistogramBucketBounds))
	for i, d := range portalAuth.HistogramBucketBounds {
		out[i] = d.Seconds()
	}
	return out
}()

// HistogramBoundSuffix names each bucket, +Inf last, for exporters that need
// one instrument per bucket.
var HistogramBoundSuffix = [BucketCount]string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
