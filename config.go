package portalAuth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/portalAuth/password"
	"github.com/MrEthical07/portalAuth/route"
)

// Config is the complete, immutable engine configuration.
//
// Config instances are intended to be configured during initialization and then
// treated as immutable. [Builder.Build] takes a deep copy, so later mutation of the
// caller's value has no effect on a running Engine.
type Config struct {
	Token    TokenConfig
	Cookie   CookieConfig
	Gateway  GatewayConfig
	Routes   RouteConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls session token signing and lifetime.
type TokenConfig struct {
	// Secret is the HS256 key. At least 32 bytes.
	Secret []byte
	TTL    time.Duration
	// RefreshThreshold triggers a sliding re-issue once the remaining lifetime drops below it.
	// Zero disables sliding refresh.
	RefreshThreshold time.Duration
	Issuer           string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig names and scopes the two session cookies.
//
// The session cookie carries the token and is HttpOnly. The status cookie is a
// script-readable hint for the client and is never trusted by the server.
type CookieConfig struct {
	SessionName string
	StatusName  string
	// StatusValue is written on login; any non-empty status value is read as "claims authenticated".
	StatusValue string
	Path        string
	Domain      string
	// Secure is forced on when Security.ProductionMode is set.
	Secure   bool
	SameSite http.SameSite
}

/*
====================================
GATEWAY CONFIG
====================================
*/

// GatewayConfig holds the paths and parameters the session gateway redirects with.
type GatewayConfig struct {
	LoginPath        string
	LogoutPath       string
	WhoAmIPath       string
	LandingPath      string
	UnauthorizedPath string
	// RedirectParam carries the original path+query to the login page.
	RedirectParam string
	// LoopParam and LoopHeader carry the redirect-loop counter.
	LoopParam  string
	LoopHeader string
	// MaxRedirects is the loop ceiling; a request arriving with a larger counter passes through.
	MaxRedirects int
	// AllowBearer accepts "Authorization: Bearer" when no session cookie is present.
	AllowBearer bool
}

/*
====================================
ROUTE CONFIG
====================================
*/

// RouteConfig is the static route table used for request classification.
type RouteConfig struct {
	Rules     []route.Rule
	APIPrefix string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id cost parameters for the default hasher.
type PasswordConfig struct {
	Memory           uint32 // in KB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds deployment posture and login throttling.
type SecurityConfig struct {
	ProductionMode bool
	// MaxLoginAttempts failures per window trip the throttle. Zero disables it.
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	EnableIPThrottle      bool
	RedisPrefix           string
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the portal defaults. Token.Secret is left empty and must be supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		Token: TokenConfig{
			TTL:              24 * time.Hour,
			RefreshThreshold: 12 * time.Hour,
			Issuer:           "portal",
		},
		Cookie: CookieConfig{
			SessionName: "session_token",
			StatusName:  "auth_status",
			StatusValue: StatusLoggedIn,
			Path:        "/",
			SameSite:    http.SameSiteLaxMode,
		},
		Gateway: GatewayConfig{
			LoginPath:        "/login",
			LogoutPath:       "/logout",
			WhoAmIPath:       "/whoami",
			LandingPath:      "/dashboard",
			UnauthorizedPath: "/unauthorized",
			RedirectParam:    "redirect",
			LoopParam:        "_rc",
			LoopHeader:       "X-Auth-Redirect-Count",
			MaxRedirects:     2,
			AllowBearer:      true,
		},
		Routes: RouteConfig{
			Rules:     route.DefaultPortalRules(),
			APIPrefix: route.DefaultAPIPrefix,
		},
		Password: PasswordConfig{
			Memory:           pw.Memory,
			Time:             pw.Time,
			Parallelism:      pw.Parallelism,
			SaltLength:       pw.SaltLength,
			KeyLength:        pw.KeyLength,
			MaxPasswordBytes: pw.MaxPasswordBytes,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			ProductionMode:        false,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			EnableIPThrottle:      false,
			RedisPrefix:           "portal:",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	if cfg.Routes.Rules != nil {
		out.Routes.Rules = make([]route.Rule, len(cfg.Routes.Rules))
		for i, r := range cfg.Routes.Rules {
			r.RequiredRoles = append([]string(nil), r.RequiredRoles...)
			out.Routes.Rules[i] = r
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// secureCookies reports the effective Secure attribute.
func (c *Config) secureCookies() bool {
	return c.Security.ProductionMode || c.Cookie.Secure
}

func (c *Config) passwordConfig() password.Config {
	return password.Config{
		Memory:           c.Password.Memory,
		Time:             c.Password.Time,
		Parallelism:      c.Password.Parallelism,
		SaltLength:       c.Password.SaltLength,
		KeyLength:        c.Password.KeyLength,
		MaxPasswordBytes: c.Password.MaxPasswordBytes,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for internal consistency.
//
// It does not touch the network; Redis and directory reachability are the caller's concern.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.Secret) < 32 {
		return errors.New("Token Secret must be at least 32 bytes")
	}
	if c.Token.TTL <= 0 {
		return errors.New("Token TTL must be > 0")
	}
	if c.Token.RefreshThreshold < 0 {
		return errors.New("Token RefreshThreshold must be >= 0")
	}
	if c.Token.RefreshThreshold >= c.Token.TTL {
		return errors.New("Token RefreshThreshold must be < TTL")
	}

	// Cookies
	if !validCookieName(c.Cookie.SessionName) {
		return errors.New("Cookie SessionName is invalid")
	}
	if !validCookieName(c.Cookie.StatusName) {
		return errors.New("Cookie StatusName is invalid")
	}
	if c.Cookie.SessionName == c.Cookie.StatusName {
		return errors.New("Cookie SessionName and StatusName must differ")
	}
	if strings.TrimSpace(c.Cookie.StatusValue) == "" {
		return errors.New("Cookie StatusValue must be set")
	}
	if !strings.HasPrefix(c.Cookie.Path, "/") {
		return errors.New("Cookie Path must start with /")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.secureCookies() {
		return errors.New("Cookie SameSite=None requires Secure cookies")
	}

	// Gateway
	for name, p := range map[string]string{
		"LoginPath":        c.Gateway.LoginPath,
		"LogoutPath":       c.Gateway.LogoutPath,
		"WhoAmIPath":       c.Gateway.WhoAmIPath,
		"LandingPath":      c.Gateway.LandingPath,
		"UnauthorizedPath": c.Gateway.UnauthorizedPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("Gateway %s must start with /", name)
		}
	}
	if c.Gateway.LandingPath == c.Gateway.LoginPath {
		return errors.New("Gateway LandingPath must differ from LoginPath")
	}
	if c.Gateway.RedirectParam == "" || c.Gateway.LoopParam == "" {
		return errors.New("Gateway RedirectParam and LoopParam must be set")
	}
	if c.Gateway.RedirectParam == c.Gateway.LoopParam {
		return errors.New("Gateway RedirectParam and LoopParam must differ")
	}
	if c.Gateway.MaxRedirects < 1 {
		return errors.New("Gateway MaxRedirects must be >= 1")
	}

	// Routes
	for _, r := range c.Routes.Rules {
		for _, role := range r.RequiredRoles {
			if _, ok := ParseRole(role); !ok {
				return fmt.Errorf("%w: route %q requires %q", ErrUnknownRole, r.Prefix, role)
			}
		}
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Security
	if c.Security.MaxLoginAttempts < 0 {
		return errors.New("Security MaxLoginAttempts must be >= 0")
	}
	if c.Security.MaxLoginAttempts > 0 && c.Security.LoginCooldownDuration <= 0 {
		return errors.New("Security LoginCooldownDuration must be > 0 when throttling is enabled")
	}
	if c.Security.ProductionMode && c.Cookie.SameSite == http.SameSiteNoneMode {
		return errors.New("ProductionMode forbids SameSite=None session cookies")
	}

	return nil
}

func validCookieName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r <= ' ' || r >= 0x7f || strings.ContainsRune("()<>@,;:\\\"/[]?={}", r) {
			return false
		}
	}
	return true
}
