// Package memory is an in-process portalAuth.UserDirectory.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/directory"
	"github.com/MrEthical07/portalAuth/permission"
)

// Directory stores accounts in memory. Safe for concurrent use.
type Directory struct {
	mu        sync.RWMutex
	accounts  map[string]*portalAuth.Account
	bySubject map[string]string

	table *permission.Table
	now   func() time.Time
}

// Option configures a Directory.
type Option func(*Directory)

// WithClock overrides the clock used for last-login timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Directory) { d.now = now }
}

// New returns an empty Directory resolving role permissions from table.
// A nil table means permission.DefaultPortalTable.
func New(table *permission.Table, opts ...Option) *Directory {
	if table == nil {
		table = permission.DefaultPortalTable()
	}
	d := &Directory{
		accounts:  make(map[string]*portalAuth.Account),
		bySubject: make(map[string]string),
		table:     table,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Add registers acc. Identifiers are unique case-insensitively.
func (d *Directory) Add(acc portalAuth.Account) error {
	key := directory.NormalizeIdentifier(acc.Identifier)
	if key == "" || acc.SubjectID == "" || acc.PasswordHash == "" {
		return directory.ErrInvalidAccount
	}
	if _, ok := portalAuth.ParseRole(string(acc.Role)); !ok {
		return fmt.Errorf("%w: role %q", portalAuth.ErrUnknownRole, acc.Role)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.accounts[key]; dup {
		return directory.ErrDuplicateIdentifier
	}
	if _, dup := d.bySubject[acc.SubjectID]; dup {
		return fmt.Errorf("%w: subject %q", directory.ErrDuplicateIdentifier, acc.SubjectID)
	}
	cp := acc
	d.accounts[key] = &cp
	d.bySubject[acc.SubjectID] = key
	return nil
}

// SetActive toggles the active flag of the account with subjectID.
func (d *Directory) SetActive(subjectID string, active bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key, ok := d.bySubject[subjectID]
	if !ok {
		return directory.ErrNotFound
	}
	d.accounts[key].Active = active
	return nil
}

// FindByIdentifier returns a copy of the matching account, or (nil, nil).
func (d *Directory) FindByIdentifier(_ context.Context, identifier string) (*portalAuth.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	acc, ok := d.accounts[directory.NormalizeIdentifier(identifier)]
	if !ok {
		return nil, nil
	}
	return copyAccount(acc), nil
}

// PermissionsForRole returns the permission set the table grants role.
func (d *Directory) PermissionsForRole(_ context.Context, role portalAuth.Role) ([]string, error) {
	return d.table.PermissionsFor(string(role)), nil
}

// TouchLastLogin stamps the account's last successful login.
func (d *Directory) TouchLastLogin(_ context.Context, subjectID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key, ok := d.bySubject[subjectID]
	if !ok {
		return directory.ErrNotFound
	}
	ts := d.now().UTC()
	d.accounts[key].LastLoginAt = &ts
	return nil
}

// Len reports how many accounts are registered.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.accounts)
}

func copyAccount(acc *portalAuth.Account) *portalAuth.Account {
	cp := *acc
	if acc.LastLoginAt != nil {
		ts := *acc.LastLoginAt
		cp.LastLoginAt = &ts
	}
	return &cp
}
