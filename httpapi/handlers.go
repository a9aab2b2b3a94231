// Package httpapi exposes the portal's authentication endpoints over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/middleware"
	"github.com/MrEthical07/portalAuth/route"
)

const maxLoginBody = 16 << 10

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	// Redirect is where the client wants to land after login. Only same-origin
	// paths are honoured.
	Redirect string `json:"redirect,omitempty"`
}

// LoginResponse is returned by a successful POST /login.
type LoginResponse struct {
	Principal portalAuth.Principal `json:"principal"`
	Token     string               `json:"token"`
	ExpiresAt int64                `json:"expires_at"`
	Redirect  string               `json:"redirect"`
}

// WhoAmIResponse is returned by GET /whoami.
type WhoAmIResponse struct {
	Principal portalAuth.Principal `json:"principal"`
	ExpiresAt int64                `json:"expires_at"`
}

// HandleLogin authenticates identifier and password and sets both session cookies.
//
// Failures are 400 for a malformed body, 429 while throttled and 401 for
// everything else, with the same body whatever the underlying cause.
func HandleLogin(engine *portalAuth.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req LoginRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody))
		if err := dec.Decode(&req); err != nil {
			middleware.WriteJSONError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if strings.TrimSpace(req.Identifier) == "" || req.Password == "" {
			middleware.WriteJSONError(w, http.StatusBadRequest, "invalid_request")
			return
		}

		session, err := engine.LoginSession(ctx, req.Identifier, req.Password)
		switch {
		case err == nil:
		case errors.Is(err, portalAuth.ErrLoginRateLimited):
			middleware.WriteJSONError(w, http.StatusTooManyRequests, "rate_limited")
			return
		case errors.Is(err, portalAuth.ErrInvalidCredentials):
			middleware.WriteJSONError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		default:
			engine.Logger().ErrorContext(ctx, "login failed", "error", err)
			middleware.WriteJSONError(w, http.StatusInternalServerError, "internal_error")
			return
		}

		engine.WriteSessionCookies(w, session)

		cfg := engine.GatewayConfig()
		target := req.Redirect
		if target == "" {
			target = r.URL.Query().Get(cfg.RedirectParam)
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Principal: session.Principal,
			Token:     session.Token,
			ExpiresAt: session.ExpiresAt.UnixMilli(),
			Redirect:  route.SafeRedirect(target, cfg.LandingPath),
		})
	}
}

// HandleLogout clears both session cookies. It always answers 204, with or
// without a session, so repeating it is harmless.
func HandleLogout(engine *portalAuth.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine.Logout(r.Context(), requestToken(engine, r))
		engine.ClearSessionCookies(w)
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleWhoAmI reports the principal behind the request's session. The path
// is public to the gateway, so the token is verified here.
func HandleWhoAmI(engine *portalAuth.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := requestToken(engine, r)
		if token == "" {
			middleware.WriteJSONError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		v, err := engine.VerifySession(r.Context(), token)
		if err != nil {
			if engine.ReadSessionCookies(r).Token != "" {
				engine.ClearSessionCookies(w)
			}
			middleware.WriteJSONError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, WhoAmIResponse{
			Principal: v.Principal,
			ExpiresAt: v.ExpiresAt.UnixMilli(),
		})
	}
}

func requestToken(engine *portalAuth.Engine, r *http.Request) string {
	if c := engine.ReadSessionCookies(r); c.Token != "" {
		return c.Token
	}
	if !engine.GatewayConfig().AllowBearer {
		return ""
	}
	if v := r.Header.Get("Authorization"); strings.HasPrefix(v, "Bearer ") {
		return strings.TrimPrefix(v, "Bearer ")
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

