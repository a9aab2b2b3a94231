// Package bundir is a portalAuth.UserDirectory backed by an accounts table,
// reached through bun on PostgreSQL or SQLite.
package bundir

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/directory"
	"github.com/MrEthical07/portalAuth/permission"
	"github.com/uptrace/bun"
)

// accountModel is one row of the accounts table. Identifiers are stored normalized.
type accountModel struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	SubjectID    string     `bun:"subject_id,pk"`
	Identifier   string     `bun:"identifier,notnull,unique"`
	PasswordHash string     `bun:"password_hash,notnull"`
	Role         string     `bun:"role,notnull"`
	DepartmentID string     `bun:"department_id,notnull"`
	Active       bool       `bun:"active,notnull"`
	LastLoginAt  *time.Time `bun:"last_login_at"`
	CreatedAt    time.Time  `bun:"created_at,notnull"`
}

func (m *accountModel) account() *portalAuth.Account {
	return &portalAuth.Account{
		SubjectID:    m.SubjectID,
		Identifier:   m.Identifier,
		PasswordHash: m.PasswordHash,
		Role:         portalAuth.Role(m.Role),
		DepartmentID: m.DepartmentID,
		Active:       m.Active,
		LastLoginAt:  m.LastLoginAt,
	}
}

// Directory implements portalAuth.UserDirectory using bun.
type Directory struct {
	db    *bun.DB
	table *permission.Table
	now   func() time.Time
}

// Option configures a Directory.
type Option func(*Directory)

// WithClock overrides the clock used for created and last-login timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Directory) { d.now = now }
}

// New returns a Directory on db. Role permissions come from table, or
// permission.DefaultPortalTable when table is nil.
func New(db *bun.DB, table *permission.Table, opts ...Option) *Directory {
	if table == nil {
		table = permission.DefaultPortalTable()
	}
	d := &Directory{db: db, table: table, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// EnsureSchema creates the accounts table when it does not exist.
func (d *Directory) EnsureSchema(ctx context.Context) error {
	_, err := d.db.NewCreateTable().
		Model((*accountModel)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create accounts table: %w", err)
	}
	return nil
}

// Create inserts a new account.
func (d *Directory) Create(ctx context.Context, acc portalAuth.Account) error {
	key := directory.NormalizeIdentifier(acc.Identifier)
	if key == "" || acc.SubjectID == "" || acc.PasswordHash == "" {
		return directory.ErrInvalidAccount
	}
	if _, ok := portalAuth.ParseRole(string(acc.Role)); !ok {
		return fmt.Errorf("%w: role %q", portalAuth.ErrUnknownRole, acc.Role)
	}

	exists, err := d.db.NewSelect().
		Model((*accountModel)(nil)).
		Where("identifier = ?", key).
		WhereOr("subject_id = ?", acc.SubjectID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if exists {
		return directory.ErrDuplicateIdentifier
	}

	m := &accountModel{
		SubjectID:    acc.SubjectID,
		Identifier:   key,
		PasswordHash: acc.PasswordHash,
		Role:         string(acc.Role),
		DepartmentID: acc.DepartmentID,
		Active:       acc.Active,
		LastLoginAt:  acc.LastLoginAt,
		CreatedAt:    d.now().UTC(),
	}
	if _, err := d.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// FindByIdentifier returns the matching account, or (nil, nil) when none exists.
func (d *Directory) FindByIdentifier(ctx context.Context, identifier string) (*portalAuth.Account, error) {
	m := new(accountModel)
	err := d.db.NewSelect().
		Model(m).
		Where("identifier = ?", directory.NormalizeIdentifier(identifier)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return m.account(), nil
}

// PermissionsForRole returns the permission set the table grants role.
func (d *Directory) PermissionsForRole(_ context.Context, role portalAuth.Role) ([]string, error) {
	return d.table.PermissionsFor(string(role)), nil
}

// TouchLastLogin updates last_login_at for subjectID.
func (d *Directory) TouchLastLogin(ctx context.Context, subjectID string) error {
	res, err := d.db.NewUpdate().
		Model((*accountModel)(nil)).
		Set("last_login_at = ?", d.now().UTC()).
		Where("subject_id = ?", subjectID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return directory.ErrNotFound
	}
	return nil
}

// SetActive enables or disables the account with subjectID.
func (d *Directory) SetActive(ctx context.Context, subjectID string, active bool) error {
	res, err := d.db.NewUpdate().
		Model((*accountModel)(nil)).
		Set("active = ?", active).
		Where("subject_id = ?", subjectID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return directory.ErrNotFound
	}
	return nil
}

// List returns every account ordered by identifier.
func (d *Directory) List(ctx context.Context) ([]portalAuth.Account, error) {
	var rows []accountModel
	if err := d.db.NewSelect().Model(&rows).Order("identifier ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]portalAuth.Account, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].account())
	}
	return out, nil
}
