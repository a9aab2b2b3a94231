package middleware

import (
	"net/http"
	"net/url"
	"strconv"

	portalAuth "github.com/MrEthical07/portalAuth"
)

// loopCount returns the redirect-loop counter carried by r. The query
// parameter survives browser redirects; the header serves scripted clients.
// The larger of the two wins and malformed values count as zero.
func loopCount(r *http.Request, cfg portalAuth.GatewayConfig) int {
	n := parseCount(r.URL.Query().Get(cfg.LoopParam))
	if cfg.LoopHeader != "" {
		if h := parseCount(r.Header.Get(cfg.LoopHeader)); h > n {
			n = h
		}
	}
	return n
}

func parseCount(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// originalTarget is the request path and query with the loop parameter removed.
func originalTarget(r *http.Request, cfg portalAuth.GatewayConfig) string {
	q := r.URL.Query()
	if _, ok := q[cfg.LoopParam]; !ok {
		return r.URL.RequestURI()
	}
	q.Del(cfg.LoopParam)
	u := url.URL{Path: r.URL.Path, RawQuery: q.Encode()}
	return u.RequestURI()
}

// loginLocation builds the login redirect for an unauthenticated browser request.
func loginLocation(r *http.Request, cfg portalAuth.GatewayConfig, count int) string {
	q := url.Values{}
	q.Set(cfg.RedirectParam, originalTarget(r, cfg))
	q.Set(cfg.LoopParam, strconv.Itoa(count+1))
	return cfg.LoginPath + "?" + q.Encode()
}

// landingLocation builds the redirect sent from the login page to an authenticated browser.
func landingLocation(cfg portalAuth.GatewayConfig, count int) string {
	q := url.Values{}
	q.Set(cfg.LoopParam, strconv.Itoa(count+1))
	return cfg.LandingPath + "?" + q.Encode()
}
