package route

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MrEthical07/portalAuth/permission"
)

// DefaultAPIPrefix marks API-shaped paths.
const DefaultAPIPrefix = "/api/"

// Rule describes one protected or public path prefix.
type Rule struct {
	// Prefix is matched on segment boundaries.
	Prefix string
	Public bool
	// RequiredRoles, when set, admits only those roles.
	RequiredRoles []string
	// Resource, when set, is checked against the permission table.
	Resource string
	// Action overrides the method-derived action.
	Action permission.Action
}

// Classification is the outcome of classifying one request.
type Classification struct {
	Public        bool
	API           bool
	Matched       bool
	Prefix        string
	RequiredRoles []string
	Resource      string
	Action        permission.Action
}

// RequiresAuth is the inverse of Public.
func (c Classification) RequiresAuth() bool { return !c.Public }

// AdmitsRole reports whether role satisfies RequiredRoles. An empty list admits everyone.
func (c Classification) AdmitsRole(role string) bool {
	if len(c.RequiredRoles) == 0 {
		return true
	}
	for _, r := range c.RequiredRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Config builds a Table.
type Config struct {
	Rules     []Rule
	APIPrefix string
	// AlwaysPublic paths are public regardless of rules, e.g. the login endpoints.
	AlwaysPublic []string
}

// Table is an immutable, lock-free route classifier.
type Table struct {
	rules        []Rule
	apiPrefix    string
	alwaysPublic map[string]struct{}
}

// NewTable validates cfg and returns a Table.
func NewTable(cfg Config) (*Table, error) {
	apiPrefix := cfg.APIPrefix
	if apiPrefix == "" {
		apiPrefix = DefaultAPIPrefix
	}
	if !strings.HasPrefix(apiPrefix, "/") {
		return nil, errors.New("route api prefix must start with /")
	}

	seen := make(map[string]struct{}, len(cfg.Rules))
	rules := make([]Rule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		r.Prefix = normalize(r.Prefix)
		if !strings.HasPrefix(r.Prefix, "/") {
			return nil, fmt.Errorf("route prefix %q must start with /", r.Prefix)
		}
		if _, dup := seen[r.Prefix]; dup {
			return nil, fmt.Errorf("route prefix %q defined twice", r.Prefix)
		}
		if r.Public && (len(r.RequiredRoles) > 0 || r.Resource != "") {
			return nil, fmt.Errorf("route prefix %q is public but carries access requirements", r.Prefix)
		}
		if r.Action != "" {
			if _, ok := permission.ParseAction(string(r.Action)); !ok {
				return nil, fmt.Errorf("route prefix %q has unknown action %q", r.Prefix, r.Action)
			}
		}
		seen[r.Prefix] = struct{}{}
		r.RequiredRoles = append([]string(nil), r.RequiredRoles...)
		rules = append(rules, r)
	}
	// Longest prefix first.
	sort.SliceStable(rules, func(i, j int) bool { return len(rules[i].Prefix) > len(rules[j].Prefix) })

	public := make(map[string]struct{}, len(cfg.AlwaysPublic))
	for _, p := range cfg.AlwaysPublic {
		public[normalize(p)] = struct{}{}
	}

	return &Table{rules: rules, apiPrefix: apiPrefix, alwaysPublic: public}, nil
}

// IsAPI reports whether path is API-shaped.
func (t *Table) IsAPI(path string) bool {
	return strings.HasPrefix(path, t.apiPrefix) || path == strings.TrimSuffix(t.apiPrefix, "/")
}

// Classify resolves the rule for method and path.
func (t *Table) Classify(method, path string) Classification {
	path = normalize(path)
	c := Classification{API: t.IsAPI(path)}

	if _, ok := t.alwaysPublic[path]; ok {
		c.Public = true
		c.Matched = true
		c.Prefix = path
		return c
	}

	for _, r := range t.rules {
		if !matches(r.Prefix, path) {
			continue
		}
		c.Matched = true
		c.Prefix = r.Prefix
		c.Public = r.Public
		c.RequiredRoles = r.RequiredRoles
		c.Resource = r.Resource
		c.Action = r.Action
		if c.Action == "" && c.Resource != "" {
			c.Action = permission.ActionForMethod(method)
		}
		return c
	}

	c.Public = !c.API
	return c
}

func matches(prefix, path string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

func normalize(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			return "/"
		}
	}
	return p
}

// SafeRedirect returns target when it is a local absolute path and fallback otherwise.
// Protocol-relative ("//host") and backslash forms are rejected.
func SafeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") {
		return fallback
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") || strings.ContainsAny(target, "\r\n") {
		return fallback
	}
	return target
}
