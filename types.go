package portalAuth

import (
	"context"
	"strings"
	"time"
)

// Role is the closed enumeration of portal roles.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleDepartmentHead Role = "department_head"
	RoleFaculty        Role = "faculty"
	RoleStaff          Role = "staff"
	RoleStudent        Role = "student"
	RoleGuest          Role = "guest"
)

// AllRoles lists every role in descending privilege order.
var AllRoles = []Role{RoleAdmin, RoleDepartmentHead, RoleFaculty, RoleStaff, RoleStudent, RoleGuest}

// ParseRole maps s to a Role. Matching is case-insensitive.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllRoles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

func (r Role) String() string { return string(r) }

// Principal is the authenticated identity attached to a request.
//
// A Principal is only ever produced by [Engine.Login] or by verifying a
// session token; Permissions are derived from the role at that moment.
type Principal struct {
	SubjectID    string   `json:"subject_id"`
	Role         Role     `json:"role"`
	DepartmentID string   `json:"department_id,omitempty"`
	Permissions  []string `json:"permissions"`
}

// HasPermission reports whether p holds perm ("resource:action").
// A resource:manage entry satisfies every action on that resource.
func (p *Principal) HasPermission(perm string) bool {
	if p == nil || perm == "" {
		return false
	}
	resource, _, _ := strings.Cut(perm, ":")
	manage := resource + ":manage"
	for _, have := range p.Permissions {
		if have == perm || have == manage {
			return true
		}
	}
	return false
}

// Session is a freshly issued session token together with the principal it carries.
type Session struct {
	Token     string
	TokenID   string
	Principal Principal
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Verification is the outcome of a successful [Engine.VerifySession].
type Verification struct {
	Principal Principal
	TokenID   string
	ExpiresAt time.Time
	// NeedsRefresh is set when the remaining lifetime is below the refresh threshold.
	NeedsRefresh bool
}

// Account is the directory record the credential verifier checks against.
type Account struct {
	SubjectID    string
	Identifier   string
	PasswordHash string
	Role         Role
	DepartmentID string
	Active       bool
	LastLoginAt  *time.Time
}

// UserDirectory is the account store the engine reads during login.
type UserDirectory interface {
	// FindByIdentifier returns (nil, nil) when no account matches.
	FindByIdentifier(ctx context.Context, identifier string) (*Account, error)
	PermissionsForRole(ctx context.Context, role Role) ([]string, error)
	TouchLastLogin(ctx context.Context, subjectID string) error
}

// PasswordHasher derives and checks password digests. Verify must compare in constant time.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
}
