package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/password"
	"github.com/joeshaw/envdecode"
)

// Settings is the portald process configuration, read from the environment.
type Settings struct {
	// ServerAddr is the bind address. ENV: PORTAL_ADDR
	ServerAddr string `env:"PORTAL_ADDR,default=:8080"`
	// DatabaseURL selects the account store. A postgres:// URL uses PostgreSQL,
	// anything else is a SQLite path. ENV: DATABASE_URL
	DatabaseURL string `env:"DATABASE_URL,default=file:portal.db?cache=shared"`
	// RedisAddr enables the login throttle when set. ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR"`
	Debug     bool   `env:"PORTAL_DEBUG,default=false"`

	TokenSecret      string        `env:"PORTAL_TOKEN_SECRET"`
	TokenTTL         time.Duration `env:"PORTAL_TOKEN_TTL,default=24h"`
	RefreshThreshold time.Duration `env:"PORTAL_REFRESH_THRESHOLD,default=12h"`

	ProductionMode   bool          `env:"PORTAL_PRODUCTION,default=false"`
	CookieDomain     string        `env:"PORTAL_COOKIE_DOMAIN"`
	SameSite         string        `env:"PORTAL_COOKIE_SAMESITE,default=lax"`
	MaxLoginAttempts int           `env:"PORTAL_MAX_LOGIN_ATTEMPTS,default=5"`
	LoginCooldown    time.Duration `env:"PORTAL_LOGIN_COOLDOWN,default=15m"`
	IPThrottle       bool          `env:"PORTAL_IP_THROTTLE,default=false"`
	// TrustProxyHeaders takes the client address from X-Forwarded-For / X-Real-IP.
	// Set it only behind a reverse proxy. ENV: PORTAL_TRUST_PROXY_HEADERS
	TrustProxyHeaders bool `env:"PORTAL_TRUST_PROXY_HEADERS,default=false"`

	// AllowedOrigins is a comma-separated CORS allow list for the SPA. ENV: PORTAL_ALLOWED_ORIGINS
	AllowedOrigins string `env:"PORTAL_ALLOWED_ORIGINS,default=http://localhost:5173"`
	Metrics        bool   `env:"PORTAL_METRICS,default=true"`
	Audit          bool   `env:"PORTAL_AUDIT,default=true"`
}

// Load reads Settings from the environment. Unset variables take their tag defaults.
func Load() (*Settings, error) {
	var s Settings
	if err := envdecode.Decode(&s); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	return &s, nil
}

// Origins splits AllowedOrigins.
func (s *Settings) Origins() []string {
	var out []string
	for _, o := range strings.Split(s.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// LogLevel is debug when Debug is set and info otherwise.
func (s *Settings) LogLevel() slog.Level {
	if s.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// EngineConfig maps Settings onto the engine defaults. The result is validated by Build.
func (s *Settings) EngineConfig() (portalAuth.Config, error) {
	cfg := portalAuth.DefaultConfig()
	cfg.Token.Secret = []byte(s.TokenSecret)
	cfg.Token.TTL = s.TokenTTL
	cfg.Token.RefreshThreshold = s.RefreshThreshold

	cfg.Cookie.Domain = s.CookieDomain
	sameSite, err := parseSameSite(s.SameSite)
	if err != nil {
		return cfg, err
	}
	cfg.Cookie.SameSite = sameSite

	cfg.Security.ProductionMode = s.ProductionMode
	cfg.Security.MaxLoginAttempts = s.MaxLoginAttempts
	cfg.Security.LoginCooldownDuration = s.LoginCooldown
	cfg.Security.EnableIPThrottle = s.IPThrottle

	cfg.Metrics.Enabled = s.Metrics
	cfg.Metrics.EnableLatencyHistograms = s.Metrics
	cfg.Audit.Enabled = s.Audit
	return cfg, nil
}

// PasswordConfig is the Argon2id configuration portald hashes with.
func (s *Settings) PasswordConfig() password.Config {
	return password.DefaultConfig()
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, fmt.Errorf("unknown SameSite mode %q", v)
	}
}
