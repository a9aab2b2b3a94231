package client

import (
	"net/http"
	"net/url"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/permission"
	"github.com/MrEthical07/portalAuth/route"
)

// RouteGuard decides where a navigation should land for a cached principal.
//
// It is a convenience for the UI only. The server gateway makes the real
// decision on every request, whatever RouteGuard says.
type RouteGuard struct {
	routes        *route.Table
	loginPath     string
	landingPath   string
	redirectParam string
}

// NewRouteGuard builds a guard over rules. Paths not covered by rules are
// treated the way the server treats them.
func NewRouteGuard(rules []route.Rule, loginPath, landingPath string) (*RouteGuard, error) {
	t, err := route.NewTable(route.Config{
		Rules:        rules,
		AlwaysPublic: []string{loginPath},
	})
	if err != nil {
		return nil, err
	}
	return &RouteGuard{
		routes:        t,
		loginPath:     loginPath,
		landingPath:   landingPath,
		redirectParam: "redirect",
	}, nil
}

// DefaultRouteGuard mirrors the portal's default route table.
func DefaultRouteGuard() *RouteGuard {
	g, err := NewRouteGuard(route.DefaultPortalRules(), "/login", "/dashboard")
	if err != nil {
		panic(err)
	}
	return g
}

// Resolve returns the path the UI should show for a navigation to path:
// path itself when allowed, the login page when p is nil, otherwise the landing page.
func (g *RouteGuard) Resolve(p *portalAuth.Principal, path string) string {
	c := g.routes.Classify(http.MethodGet, path)
	if c.Public {
		return path
	}
	if p == nil {
		q := url.Values{}
		q.Set(g.redirectParam, path)
		return g.loginPath + "?" + q.Encode()
	}
	if !c.AdmitsRole(string(p.Role)) {
		return g.landingPath
	}
	if c.Resource != "" && !p.HasPermission(permission.String(c.Resource, c.Action)) {
		return g.landingPath
	}
	return path
}

// LandingPath is where authenticated users go by default.
func (g *RouteGuard) LandingPath() string { return g.landingPath }
