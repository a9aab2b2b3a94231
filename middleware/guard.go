package middleware

import (
	"net/http"
	"strings"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/permission"
)

// RequireAuthenticated rejects requests that reach it without a principal.
// Mount it on protected routes behind [Gateway]: it catches the browser
// requests the loop breaker passed through with no session. The gateway never
// attaches a principal on public routes, so there it always answers 401.
func RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := portalAuth.PrincipalFromContext(r.Context()); !ok {
				WriteJSONError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission admits principals whose role is granted action on resource.
func RequirePermission(engine *portalAuth.Engine, resource string, action permission.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := portalAuth.PrincipalFromContext(r.Context())
			if !ok {
				WriteJSONError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			if engine == nil || !engine.Allows(p.Role, resource, action) {
				WriteJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
