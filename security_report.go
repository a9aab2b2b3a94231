package portalAuth

import (
	"net/http"
	"time"

	"github.com/MrEthical07/portalAuth/internal/security"
)

// SecurityReport summarises the security posture an Engine was built with.
// It never includes the token secret.
type SecurityReport struct {
	ProductionMode     bool
	SigningAlgorithm   string
	TokenTTL           time.Duration
	RefreshThreshold   time.Duration
	SecretBytes        int
	SecureCookies      bool
	SameSite           string
	BearerFallback     bool
	MaxRedirects       int
	Argon2             PasswordConfigReport
	RateLimitingActive bool
	IPThrottleActive   bool
	AuditEnabled       bool
	MetricsEnabled     bool
	Roles              []string
	Warnings           []string
}

// PasswordConfigReport mirrors the Argon2id cost parameters.
type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// SecurityReport describes the engine's effective configuration.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	r := SecurityReport{
		ProductionMode:   e.config.Security.ProductionMode,
		SigningAlgorithm: "HS256",
		TokenTTL:         e.config.Token.TTL,
		RefreshThreshold: e.config.Token.RefreshThreshold,
		SecretBytes:      len(e.config.Token.Secret),
		SecureCookies:    e.config.secureCookies(),
		SameSite:         sameSiteName(e.config.Cookie.SameSite),
		BearerFallback:   e.config.Gateway.AllowBearer,
		MaxRedirects:     e.config.Gateway.MaxRedirects,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
		RateLimitingActive: e.limiter != nil,
		IPThrottleActive:   e.limiter != nil && e.config.Security.EnableIPThrottle,
		AuditEnabled:       e.audit != nil,
		MetricsEnabled:     e.metrics.Enabled(),
		Roles:              e.table.Roles(),
	}

	r.Warnings = security.Lint(security.Posture{
		ProductionMode:   r.ProductionMode,
		SecureCookies:    r.SecureCookies,
		SameSite:         r.SameSite,
		SecretBytes:      r.SecretBytes,
		TokenTTL:         r.TokenTTL,
		RefreshThreshold: r.RefreshThreshold,
		ThrottleActive:   r.RateLimitingActive,
		BearerFallback:   r.BearerFallback,
		MaxRedirects:     r.MaxRedirects,
		Argon2MemoryKB:   r.Argon2.Memory,
	})
	return r
}

func sameSiteName(s http.SameSite) string {
	switch s {
	case http.SameSiteLaxMode:
		return "Lax"
	case http.SameSiteStrictMode:
		return "Strict"
	case http.SameSiteNoneMode:
		return "None"
	default:
		return "Default"
	}
}
