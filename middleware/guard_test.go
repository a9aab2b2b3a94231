package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/permission"
)

func guardRequest(p *portalAuth.Principal) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	if p != nil {
		r = r.WithContext(portalAuth.WithPrincipal(r.Context(), p))
	}
	return r
}

func TestRequireAuthenticated(t *testing.T) {
	next := &downstream{}
	h := RequireAuthenticated()(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, guardRequest(nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, guardRequest(&portalAuth.Principal{SubjectID: "s", Role: portalAuth.RoleGuest}))
	if rec.Code != http.StatusOK || next.called() != 1 {
		t.Fatalf("expected pass, got %d", rec.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	f := newFixture(t, nil)
	h := RequirePermission(f.engine, permission.ResourceReports, permission.ActionCreate)(&downstream{})

	tests := []struct {
		name string
		p    *portalAuth.Principal
		want int
	}{
		{name: "anonymous", p: nil, want: http.StatusUnauthorized},
		{name: "student", p: &portalAuth.Principal{Role: portalAuth.RoleStudent}, want: http.StatusForbidden},
		{name: "staff", p: &portalAuth.Principal{Role: portalAuth.RoleStaff}, want: http.StatusOK},
		{name: "admin via manage", p: &portalAuth.Principal{Role: portalAuth.RoleAdmin}, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, guardRequest(tt.p))
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	if tok, ok := bearerToken("Bearer abc"); !ok || tok != "abc" {
		t.Fatalf("expected abc, got %q %v", tok, ok)
	}
	for _, v := range []string{"", "Bearer ", "Basic abc", "bearer abc"} {
		if _, ok := bearerToken(v); ok {
			t.Fatalf("expected %q to be rejected", v)
		}
	}
}

func TestRequireAuthenticatedBehindGateway(t *testing.T) {
	f := newFixture(t, nil)
	next := &downstream{}
	h := Gateway(f.engine)(RequireAuthenticated()(next))
	token := f.token(t, portalAuth.RoleFaculty)

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{name: "loop breaker pass-through", req: browserRequest(http.MethodGet, "/dashboard?_rc=3"), want: http.StatusUnauthorized},
		{name: "protected with session", req: withSession(browserRequest(http.MethodGet, "/dashboard"), token), want: http.StatusOK},
		{name: "public route never carries a principal", req: withSession(browserRequest(http.MethodGet, "/assets/app.js"), token), want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
	if next.called() != 1 {
		t.Fatalf("expected only the authenticated request downstream, got %d", next.called())
	}
}
