package portalAuth

import (
	"net/http"
	"time"
)

// Status cookie values. Only StatusLoggedIn is ever written; the other two are
// recognised when read so that stale markers from older portal builds are cleared.
const (
	StatusLoggedIn    = "logged_in"
	StatusDebugLogin  = "debug_login"
	StatusDirectLogin = "direct_login"
)

// SessionCookieState is the joint state of the session and status cookies.
type SessionCookieState int

const (
	// CookiesAbsent: neither cookie is present.
	CookiesAbsent SessionCookieState = iota
	// CookiesConsistent: session token present and status claims authenticated.
	CookiesConsistent
	// CookiesTokenOnly: session token present, status cookie missing.
	CookiesTokenOnly
	// CookiesDesynchronized: status claims authenticated but the session token is gone.
	CookiesDesynchronized
)

func (s SessionCookieState) String() string {
	switch s {
	case CookiesAbsent:
		return "absent"
	case CookiesConsistent:
		return "consistent"
	case CookiesTokenOnly:
		return "token_only"
	case CookiesDesynchronized:
		return "desynchronized"
	default:
		return "unknown"
	}
}

// SessionCookies is what the two cookies of one request carry.
type SessionCookies struct {
	Token  string
	Status string
	State  SessionCookieState
}

// ClaimsAuthenticated reports whether the status cookie carries any login marker.
func (c SessionCookies) ClaimsAuthenticated() bool {
	return c.Status != ""
}

// KnownStatus reports whether Status is one of the recognised marker values.
func (c SessionCookies) KnownStatus() bool {
	switch c.Status {
	case StatusLoggedIn, StatusDebugLogin, StatusDirectLogin:
		return true
	}
	return false
}

// ReadSessionCookies extracts both cookies from r and classifies their joint state.
func (e *Engine) ReadSessionCookies(r *http.Request) SessionCookies {
	var sc SessionCookies
	if e == nil || r == nil {
		return sc
	}
	if ck, err := r.Cookie(e.config.Cookie.SessionName); err == nil {
		sc.Token = ck.Value
	}
	if ck, err := r.Cookie(e.config.Cookie.StatusName); err == nil {
		sc.Status = ck.Value
	}
	sc.State = classifyCookies(sc.Token != "", sc.ClaimsAuthenticated())
	return sc
}

func classifyCookies(hasToken, claimsAuth bool) SessionCookieState {
	switch {
	case hasToken && claimsAuth:
		return CookiesConsistent
	case hasToken:
		return CookiesTokenOnly
	case claimsAuth:
		return CookiesDesynchronized
	default:
		return CookiesAbsent
	}
}

// WriteSessionCookies sets both cookies for s on w. Max-Age follows the token expiry.
func (e *Engine) WriteSessionCookies(w http.ResponseWriter, s *Session) {
	if e == nil || w == nil || s == nil {
		return
	}
	maxAge := int(s.ExpiresAt.Sub(e.now()).Round(time.Second) / time.Second)
	if maxAge <= 0 {
		maxAge = int(e.config.Token.TTL / time.Second)
	}
	http.SetCookie(w, e.cookie(e.config.Cookie.SessionName, s.Token, maxAge, true))
	http.SetCookie(w, e.cookie(e.config.Cookie.StatusName, e.config.Cookie.StatusValue, maxAge, false))
}

// ClearSessionCookies expires both cookies on w.
func (e *Engine) ClearSessionCookies(w http.ResponseWriter) {
	if e == nil || w == nil {
		return
	}
	http.SetCookie(w, e.cookie(e.config.Cookie.SessionName, "", -1, true))
	http.SetCookie(w, e.cookie(e.config.Cookie.StatusName, "", -1, false))
}

// ClearStatusCookie expires only the status cookie, used to resolve a desynchronized pair.
func (e *Engine) ClearStatusCookie(w http.ResponseWriter) {
	if e == nil || w == nil {
		return
	}
	http.SetCookie(w, e.cookie(e.config.Cookie.StatusName, "", -1, false))
}

func (e *Engine) cookie(name, value string, maxAge int, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     e.config.Cookie.Path,
		Domain:   e.config.Cookie.Domain,
		MaxAge:   maxAge,
		Secure:   e.config.secureCookies(),
		HttpOnly: httpOnly,
		SameSite: e.config.Cookie.SameSite,
	}
}

// RestoreStatusCookie rewrites a missing status cookie for a verified session
// so the pair returns to the consistent state.
func (e *Engine) RestoreStatusCookie(w http.ResponseWriter, v *Verification) {
	if e == nil || w == nil || v == nil {
		return
	}
	maxAge := int(v.ExpiresAt.Sub(e.now()) / time.Second)
	if maxAge <= 0 {
		return
	}
	http.SetCookie(w, e.cookie(e.config.Cookie.StatusName, e.config.Cookie.StatusValue, maxAge, false))
}
