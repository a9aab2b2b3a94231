package portalAuth

import (
	"errors"

	"github.com/MrEthical07/portalAuth/jwt"
)

var (
	// ErrInvalidCredentials covers every login failure: unknown identifier, inactive
	// account, wrong password, and directory or hasher errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginRateLimited is returned when the login throttle rejects an attempt.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrUnauthenticated is returned when a request carries no session token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidSignature is returned for malformed or forged session tokens.
	ErrInvalidSignature = jwt.ErrInvalidSignature
	// ErrExpired is returned for correctly signed session tokens past their expiry.
	ErrExpired = jwt.ErrExpired
	// ErrInsufficientPermission is returned when an authenticated principal lacks access.
	ErrInsufficientPermission = errors.New("insufficient permission")
	// ErrCookieDesynchronized marks a request whose status cookie claims a login but
	// whose session cookie is missing. It never reaches clients.
	ErrCookieDesynchronized = errors.New("session cookies desynchronized")
	// ErrEngineNotReady is returned by methods called on a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrUnknownRole is returned when configuration or a directory names a role outside the enumeration.
	ErrUnknownRole = errors.New("unknown role")
)
