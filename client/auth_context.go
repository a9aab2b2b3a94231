// Package client is the consumer-side mirror of the portal session.
//
// An [AuthContext] caches the principal the server reports, drives login and
// logout, and resolves navigations through a [RouteGuard]. None of this is
// enforcement; it only keeps the UI consistent with the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	portalAuth "github.com/MrEthical07/portalAuth"
	"golang.org/x/net/publicsuffix"
)

// AuthContext holds the client's view of the current session. Safe for concurrent use.
type AuthContext struct {
	base   *url.URL
	http   *http.Client
	guard  *RouteGuard
	logger *slog.Logger

	loginPath  string
	logoutPath string
	whoAmIPath string

	mu        sync.RWMutex
	principal *portalAuth.Principal
	location  string
}

// Option configures an AuthContext.
type Option func(*AuthContext)

// WithHTTPClient uses c for all requests. A cookie jar is added when c has none.
func WithHTTPClient(c *http.Client) Option {
	return func(a *AuthContext) { a.http = c }
}

// WithRouteGuard overrides [DefaultRouteGuard].
func WithRouteGuard(g *RouteGuard) Option {
	return func(a *AuthContext) { a.guard = g }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(a *AuthContext) { a.logger = l }
}

// WithEndpoints overrides the login, logout and whoami paths.
func WithEndpoints(login, logout, whoami string) Option {
	return func(a *AuthContext) {
		a.loginPath, a.logoutPath, a.whoAmIPath = login, logout, whoami
	}
}

// New returns an AuthContext talking to the portal at baseURL. Call Init to
// load any existing session.
func New(baseURL string, opts ...Option) (*AuthContext, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}

	a := &AuthContext{
		base:       base,
		loginPath:  "/login",
		logoutPath: "/logout",
		whoAmIPath: "/whoami",
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.http == nil {
		a.http = &http.Client{Timeout: 15 * time.Second}
	}
	if a.http.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("client: cookie jar: %w", err)
		}
		a.http.Jar = jar
	}
	if a.guard == nil {
		a.guard = DefaultRouteGuard()
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	return a, nil
}

type principalEnvelope struct {
	Principal portalAuth.Principal `json:"principal"`
	Redirect  string               `json:"redirect"`
}

// Init asks the server who the session belongs to. Any failure leaves the
// context unauthenticated; Init never returns an error for that.
func (a *AuthContext) Init(ctx context.Context) {
	resp, err := a.do(ctx, http.MethodGet, a.whoAmIPath, nil)
	if err != nil {
		a.logger.DebugContext(ctx, "whoami failed", "error", err)
		a.setPrincipal(nil)
		return
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		a.setPrincipal(nil)
		return
	}
	var env principalEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		a.logger.DebugContext(ctx, "whoami decode failed", "error", err)
		a.setPrincipal(nil)
		return
	}
	a.setPrincipal(&env.Principal)
}

// Login submits credentials. On success the principal is cached and the
// context navigates to the landing page the server chose. On failure the
// error is a *LoginError.
func (a *AuthContext) Login(ctx context.Context, identifier, password string) error {
	body, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	if err != nil {
		return err
	}

	resp, err := a.do(ctx, http.MethodPost, a.loginPath, body)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		a.setPrincipal(nil)
		return newLoginError(resp.StatusCode)
	}

	var env principalEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	a.setPrincipal(&env.Principal)

	target := env.Redirect
	if target == "" {
		target = a.guard.LandingPath()
	}
	a.Navigate(target)
	return nil
}

// Logout ends the session on the server and forgets the cached principal.
// Calling it again is harmless.
func (a *AuthContext) Logout(ctx context.Context) error {
	a.setPrincipal(nil)

	resp, err := a.do(ctx, http.MethodPost, a.logoutPath, nil)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: logout status %d", ErrUnexpectedResponse, resp.StatusCode)
	}
	a.mu.Lock()
	a.location = a.loginPath
	a.mu.Unlock()
	return nil
}

// CurrentPrincipal returns a copy of the cached principal, or nil.
func (a *AuthContext) CurrentPrincipal() *portalAuth.Principal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.principal == nil {
		return nil
	}
	cp := *a.principal
	cp.Permissions = append([]string(nil), a.principal.Permissions...)
	return &cp
}

// IsAuthenticated reports whether a principal is cached.
func (a *AuthContext) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.principal != nil
}

// HasPermission checks perm ("resource:action") against the cached principal.
func (a *AuthContext) HasPermission(perm string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.principal.HasPermission(perm)
}

// Navigate resolves path through the route guard, records the result as the
// current location and returns it.
func (a *AuthContext) Navigate(path string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.location = a.guard.Resolve(a.principal, path)
	return a.location
}

// Location is the result of the last navigation.
func (a *AuthContext) Location() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.location
}

func (a *AuthContext) setPrincipal(p *portalAuth.Principal) {
	a.mu.Lock()
	a.principal = p
	a.mu.Unlock()
}

func (a *AuthContext) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	u := a.base.JoinPath(path)

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.http.Do(req)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
