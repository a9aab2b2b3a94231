package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minSecretBytes = 32

var (
	// ErrInvalidSignature is returned for any token whose structure or signature does not verify.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrExpired is returned for a correctly signed token whose expiry has passed.
	ErrExpired = errors.New("token expired")
)

// Config defines the immutable inputs of a [Manager].
type Config struct {
	Secret []byte
	Issuer string
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Subject is the identity a token is issued for.
type Subject struct {
	ID           string
	Role         string
	DepartmentID string
}

// Claims is the decoded payload of a session token.
//
// Timestamps are NumericDate values and therefore carry whole seconds only.
type Claims struct {
	Role         string `json:"role"`
	DepartmentID string `json:"dept,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens.
//
// Manager instances are immutable after construction and safe for concurrent use.
type Manager struct {
	secret []byte
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// NewManager validates cfg and returns a Manager that owns a private copy of the secret.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, errors.New("hs256 secret must be at least 32 bytes")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Manager{
		secret: secret,
		issuer: strings.TrimSpace(cfg.Issuer),
		now:    now,
		// Claims validation is disabled here; expiry is checked after the
		// signature so the two failure kinds never overlap.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithStrictDecoding(),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Issue signs a token for subject that expires ttl from now.
//
// The returned Claims mirror exactly what was encoded, including the truncated
// issue and expiry times.
func (m *Manager) Issue(subject Subject, ttl time.Duration) (string, *Claims, error) {
	if ttl <= 0 {
		return "", nil, errors.New("token ttl must be positive")
	}
	if strings.TrimSpace(subject.ID) == "" {
		return "", nil, errors.New("token subject is required")
	}
	if strings.TrimSpace(subject.Role) == "" {
		return "", nil, errors.New("token role is required")
	}

	issuedAt := m.now().Truncate(time.Second)
	claims := &Claims{
		Role:         subject.Role,
		DepartmentID: subject.DepartmentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify authenticates token and returns its claims.
//
// It returns [ErrInvalidSignature] when the token cannot be parsed or its MAC
// does not match, and [ErrExpired] when exp <= now.
func (m *Manager) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidSignature
	}

	claims := &Claims{}
	parsed, err := m.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSignature
	}
	if claims.Subject == "" || claims.Role == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidSignature
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return nil, ErrInvalidSignature
	}

	if !claims.ExpiresAt.Time.After(m.now()) {
		return nil, ErrExpired
	}
	return claims, nil
}

// Remaining returns how long claims stay valid relative to the manager clock.
func (m *Manager) Remaining(claims *Claims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Time.Sub(m.now())
}
