package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/directory"
)

func testAccount(id string) portalAuth.Account {
	return portalAuth.Account{
		SubjectID:    "sub-" + id,
		Identifier:   id,
		PasswordHash: "$argon2id$stub",
		Role:         portalAuth.RoleFaculty,
		Active:       true,
	}
}

func TestDirectoryFindIsCaseInsensitive(t *testing.T) {
	d := New(nil)
	if err := d.Add(testAccount("Alice@Uni.edu")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	acc, err := d.FindByIdentifier(context.Background(), "  alice@uni.EDU ")
	if err != nil || acc == nil {
		t.Fatalf("expected account, got %v, %v", acc, err)
	}
	if acc.SubjectID != "sub-Alice@Uni.edu" {
		t.Fatalf("unexpected subject %q", acc.SubjectID)
	}

	missing, err := d.FindByIdentifier(context.Background(), "bob@uni.edu")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for unknown identifier, got %v, %v", missing, err)
	}
}

func TestDirectoryRejectsDuplicatesAndBadAccounts(t *testing.T) {
	d := New(nil)
	if err := d.Add(testAccount("a@uni.edu")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	dup := testAccount("A@UNI.EDU")
	dup.SubjectID = "other"
	if err := d.Add(dup); !errors.Is(err, directory.ErrDuplicateIdentifier) {
		t.Fatalf("expected ErrDuplicateIdentifier, got %v", err)
	}

	bad := testAccount("b@uni.edu")
	bad.Role = "janitor"
	if err := d.Add(bad); !errors.Is(err, portalAuth.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}

	if err := d.Add(portalAuth.Account{Identifier: "c@uni.edu"}); !errors.Is(err, directory.ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}
	if d.Len() != 1 {
		t.Fatalf("expected 1 account, got %d", d.Len())
	}
}

func TestDirectoryReturnsCopies(t *testing.T) {
	d := New(nil)
	_ = d.Add(testAccount("a@uni.edu"))

	acc, _ := d.FindByIdentifier(context.Background(), "a@uni.edu")
	acc.Active = false
	acc.Role = portalAuth.RoleAdmin

	again, _ := d.FindByIdentifier(context.Background(), "a@uni.edu")
	if !again.Active || again.Role != portalAuth.RoleFaculty {
		t.Fatal("mutating a returned account changed the directory")
	}
}

func TestDirectoryTouchLastLogin(t *testing.T) {
	fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	d := New(nil, WithClock(func() time.Time { return fixed }))
	_ = d.Add(testAccount("a@uni.edu"))

	if err := d.TouchLastLogin(context.Background(), "sub-a@uni.edu"); err != nil {
		t.Fatalf("TouchLastLogin failed: %v", err)
	}
	acc, _ := d.FindByIdentifier(context.Background(), "a@uni.edu")
	if acc.LastLoginAt == nil || !acc.LastLoginAt.Equal(fixed) {
		t.Fatalf("expected last login %v, got %v", fixed, acc.LastLoginAt)
	}

	if err := d.TouchLastLogin(context.Background(), "nobody"); !errors.Is(err, directory.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDirectoryPermissionsFollowTable(t *testing.T) {
	d := New(nil)
	perms, err := d.PermissionsForRole(context.Background(), portalAuth.RoleGuest)
	if err != nil {
		t.Fatalf("PermissionsForRole failed: %v", err)
	}
	want := map[string]bool{"faculty_profile:read": true, "publications:read": true}
	if len(perms) != len(want) {
		t.Fatalf("unexpected guest permissions %v", perms)
	}
	for _, p := range perms {
		if !want[p] {
			t.Fatalf("unexpected guest permission %q", p)
		}
	}
}

func TestDirectorySetActive(t *testing.T) {
	d := New(nil)
	_ = d.Add(testAccount("a@uni.edu"))
	if err := d.SetActive("sub-a@uni.edu", false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	acc, _ := d.FindByIdentifier(context.Background(), "a@uni.edu")
	if acc.Active {
		t.Fatal("expected inactive account")
	}
}
