package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/directory/memory"
	"github.com/MrEthical07/portalAuth/httpapi"
)

const testPassword = "correct-password-123"

func newPortal(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := portalAuth.DefaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	dir := memory.New(nil)
	engine, err := portalAuth.New().WithConfig(cfg).WithDirectory(dir).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	for id, role := range map[string]portalAuth.Role{
		"alice@uni.edu": portalAuth.RoleFaculty,
		"sam@uni.edu":   portalAuth.RoleStudent,
	} {
		digest, err := engine.HashPassword(testPassword)
		if err != nil {
			t.Fatalf("HashPassword failed: %v", err)
		}
		if err := dir.Add(portalAuth.Account{
			SubjectID:    "sub-" + id,
			Identifier:   id,
			PasswordHash: digest,
			Role:         role,
			Active:       true,
		}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	srv := httptest.NewServer(httpapi.NewRouter(httpapi.RouterOptions{Engine: engine}))
	t.Cleanup(srv.Close)
	return srv
}

func newAuthContext(t *testing.T, srv *httptest.Server, opts ...Option) *AuthContext {
	t.Helper()
	a, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func TestInitWithoutSession(t *testing.T) {
	srv := newPortal(t)
	a := newAuthContext(t, srv)

	a.Init(context.Background())
	if a.IsAuthenticated() || a.CurrentPrincipal() != nil {
		t.Fatal("expected no principal without a session")
	}
}

func TestInitUnreachableServer(t *testing.T) {
	a, err := New("http://127.0.0.1:1")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	a.Init(context.Background())
	if a.IsAuthenticated() {
		t.Fatal("unreachable server must leave the context unauthenticated")
	}
}

func TestLoginCachesPrincipalAndNavigates(t *testing.T) {
	srv := newPortal(t)
	httpClient := &http.Client{}
	a := newAuthContext(t, srv, WithHTTPClient(httpClient))

	if err := a.Login(context.Background(), "alice@uni.edu", testPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	p := a.CurrentPrincipal()
	if p == nil || p.Role != portalAuth.RoleFaculty {
		t.Fatalf("unexpected principal %+v", p)
	}
	if a.Location() != "/dashboard" {
		t.Fatalf("expected landing page, got %q", a.Location())
	}
	if !a.HasPermission("publications:create") || a.HasPermission("users:read") {
		t.Fatalf("unexpected permissions %v", p.Permissions)
	}

	// A second context sharing the cookie jar picks the session up through whoami.
	b := newAuthContext(t, srv, WithHTTPClient(httpClient))
	b.Init(context.Background())
	if got := b.CurrentPrincipal(); got == nil || got.SubjectID != "sub-alice@uni.edu" {
		t.Fatalf("expected session restored from cookies, got %+v", got)
	}
}

func TestLoginFailureIsGeneric(t *testing.T) {
	srv := newPortal(t)
	a := newAuthContext(t, srv)

	var messages []string
	for _, creds := range [][2]string{
		{"alice@uni.edu", "wrong-password-123"},
		{"nobody@uni.edu", testPassword},
	} {
		err := a.Login(context.Background(), creds[0], creds[1])
		var le *LoginError
		if !errors.As(err, &le) {
			t.Fatalf("expected *LoginError, got %v", err)
		}
		if le.Status != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", le.Status)
		}
		messages = append(messages, le.Message)
	}
	if messages[0] != messages[1] {
		t.Fatalf("login errors must not reveal account existence: %q vs %q", messages[0], messages[1])
	}
	if a.IsAuthenticated() {
		t.Fatal("failed login must not cache a principal")
	}

	err := a.Login(context.Background(), "", "")
	var le *LoginError
	if !errors.As(err, &le) || le.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 LoginError, got %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	srv := newPortal(t)
	a := newAuthContext(t, srv)

	if err := a.Login(context.Background(), "sam@uni.edu", testPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := a.Logout(context.Background()); err != nil {
			t.Fatalf("Logout %d failed: %v", i+1, err)
		}
		if a.IsAuthenticated() {
			t.Fatalf("Logout %d left a principal", i+1)
		}
		if a.Location() != "/login" {
			t.Fatalf("expected login location, got %q", a.Location())
		}
	}

	a.Init(context.Background())
	if a.IsAuthenticated() {
		t.Fatal("server still reports a session after logout")
	}
}

func TestNavigate(t *testing.T) {
	srv := newPortal(t)
	a := newAuthContext(t, srv)

	if got := a.Navigate("/publications"); got != "/login?redirect=%2Fpublications" {
		t.Fatalf("anonymous navigation: got %q", got)
	}
	if got := a.Navigate("/about"); got != "/about" {
		t.Fatalf("public navigation: got %q", got)
	}

	if err := a.Login(context.Background(), "sam@uni.edu", testPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	tests := []struct {
		path string
		want string
	}{
		{path: "/publications", want: "/publications"},
		{path: "/reports", want: "/dashboard"},
		{path: "/admin", want: "/dashboard"},
		{path: "/department/cs", want: "/dashboard"},
		{path: "/dashboard", want: "/dashboard"},
	}
	for _, tt := range tests {
		if got := a.Navigate(tt.path); got != tt.want {
			t.Fatalf("student navigating to %s: got %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New("/portal"); err == nil {
		t.Fatal("expected error for relative base url")
	}
}
