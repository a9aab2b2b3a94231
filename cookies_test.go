package portalAuth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReadSessionCookiesStates(t *testing.T) {
	te := newTestEngine(t, nil)

	tests := []struct {
		name    string
		cookies []*http.Cookie
		want    SessionCookieState
	}{
		{"absent", nil, CookiesAbsent},
		{"consistent", []*http.Cookie{{Name: "session_token", Value: "t"}, {Name: "auth_status", Value: StatusLoggedIn}}, CookiesConsistent},
		{"token only", []*http.Cookie{{Name: "session_token", Value: "t"}}, CookiesTokenOnly},
		{"desync logged_in", []*http.Cookie{{Name: "auth_status", Value: StatusLoggedIn}}, CookiesDesynchronized},
		{"desync debug marker", []*http.Cookie{{Name: "auth_status", Value: StatusDebugLogin}}, CookiesDesynchronized},
		{"desync direct marker", []*http.Cookie{{Name: "auth_status", Value: StatusDirectLogin}}, CookiesDesynchronized},
		{"desync unknown marker", []*http.Cookie{{Name: "auth_status", Value: "yes"}}, CookiesDesynchronized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			for _, c := range tt.cookies {
				r.AddCookie(c)
			}
			if got := te.ReadSessionCookies(r).State; got != tt.want {
				t.Fatalf("state = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWriteSessionCookiesAttributes(t *testing.T) {
	te := newTestEngine(t, nil)
	s, err := te.IssueSession(context.Background(), Principal{SubjectID: "u1", Role: RoleFaculty})
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}

	rec := httptest.NewRecorder()
	te.WriteSessionCookies(rec, s)
	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}

	session, status := cookies[0], cookies[1]
	if session.Name != "session_token" || session.Value != s.Token || !session.HttpOnly {
		t.Fatalf("unexpected session cookie: %+v", session)
	}
	if session.MaxAge != 24*60*60 || session.Path != "/" || session.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected session cookie scope: %+v", session)
	}
	if session.Secure {
		t.Fatalf("secure must be off outside production by default")
	}
	if status.Name != "auth_status" || status.Value != StatusLoggedIn || status.HttpOnly {
		t.Fatalf("unexpected status cookie: %+v", status)
	}
}

func TestProductionModeForcesSecureCookies(t *testing.T) {
	te := newTestEngine(t, func(b *Builder) {
		cfg := testConfig()
		cfg.Security.ProductionMode = true
		b.WithConfig(cfg)
	})

	rec := httptest.NewRecorder()
	te.ClearSessionCookies(rec)
	for _, c := range rec.Result().Cookies() {
		if !c.Secure {
			t.Fatalf("cookie %s must be Secure in production", c.Name)
		}
		if c.MaxAge >= 0 {
			t.Fatalf("cookie %s must be expired, got MaxAge %d", c.Name, c.MaxAge)
		}
	}
	if !te.CookieConfig().Secure {
		t.Fatalf("CookieConfig should report effective Secure")
	}
}

func TestClearStatusCookieOnlyTouchesStatus(t *testing.T) {
	te := newTestEngine(t, nil)
	rec := httptest.NewRecorder()
	te.ClearStatusCookie(rec)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "auth_status" {
		t.Fatalf("expected only auth_status to be cleared, got %+v", cookies)
	}
}
