package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/directory/memory"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// downstream records what reached the protected handler.
type downstream struct {
	mu        sync.Mutex
	calls     int
	principal *portalAuth.Principal
}

func (d *downstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	d.calls++
	d.principal, _ = portalAuth.PrincipalFromContext(r.Context())
	d.mu.Unlock()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (d *downstream) called() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type fixture struct {
	engine  *portalAuth.Engine
	clock   *testClock
	next    *downstream
	handler http.Handler
}

func newFixture(t *testing.T, mutate func(*portalAuth.Config), opts ...Option) *fixture {
	t.Helper()

	cfg := portalAuth.DefaultConfig()
	cfg.Token.Secret = append([]byte(nil), testSecret...)
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}

	clock := &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	engine, err := portalAuth.New().
		WithConfig(cfg).
		WithDirectory(memory.New(nil)).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	next := &downstream{}
	return &fixture{
		engine:  engine,
		clock:   clock,
		next:    next,
		handler: Gateway(engine, opts...)(next),
	}
}

func (f *fixture) token(t *testing.T, role portalAuth.Role) string {
	t.Helper()
	s, err := f.engine.IssueSession(context.Background(), portalAuth.Principal{
		SubjectID: "sub-" + string(role),
		Role:      role,
	})
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	return s.Token
}

func (f *fixture) serve(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	return rec
}

func browserRequest(method, target string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	r.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return r
}

func apiRequest(method, target string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	r.Header.Set("Accept", "application/json")
	return r
}

func withSession(r *http.Request, token string) *http.Request {
	r.AddCookie(&http.Cookie{Name: "session_token", Value: token})
	r.AddCookie(&http.Cookie{Name: "auth_status", Value: portalAuth.StatusLoggedIn})
	return r
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}
