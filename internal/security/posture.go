package security

import "time"

// Posture is the subset of engine configuration the lint inspects.
type Posture struct {
	ProductionMode   bool
	SecureCookies    bool
	SameSite         string
	SecretBytes      int
	TokenTTL         time.Duration
	RefreshThreshold time.Duration
	ThrottleActive   bool
	BearerFallback   bool
	MaxRedirects     int
	Argon2MemoryKB   uint32
}

// Recommended minimums. Weaker settings are legal but produce a warning.
const (
	MinSecretBytes    = 64
	MinArgon2MemoryKB = 19 * 1024
	MaxTokenTTL       = 7 * 24 * time.Hour
)

// Lint returns one human-readable warning per weak setting, in a stable order.
func Lint(p Posture) []string {
	var out []string
	if !p.SecureCookies {
		out = append(out, "session cookies are sent without the Secure attribute")
	}
	if p.SameSite == "None" {
		out = append(out, "SameSite=None exposes the session cookie to cross-site requests")
	}
	if p.SecretBytes < MinSecretBytes {
		out = append(out, "token secret is shorter than 64 bytes")
	}
	if !p.ThrottleActive {
		out = append(out, "login throttling is disabled")
	}
	if p.TokenTTL > MaxTokenTTL {
		out = append(out, "session tokens live longer than seven days")
	}
	if p.RefreshThreshold == 0 {
		out = append(out, "sliding refresh is disabled; sessions end at a fixed time")
	}
	if p.MaxRedirects == 0 {
		out = append(out, "redirect loop ceiling is zero; every unauthenticated page view passes through")
	}
	if p.Argon2MemoryKB < MinArgon2MemoryKB {
		out = append(out, "argon2id memory cost is below 19 MiB")
	}
	if p.ProductionMode && p.BearerFallback {
		out = append(out, "bearer tokens are accepted in production")
	}
	return out
}
