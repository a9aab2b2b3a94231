package permission

import (
	"net/http"
	"sync"
	"testing"
)

func TestManageImpliesAllActions(t *testing.T) {
	tbl := MustNewTable(map[string]map[string]Grant{
		"admin": {"users": Manage},
	})
	for _, a := range Actions {
		if !tbl.Allows("admin", "users", a) {
			t.Fatalf("expected manage to imply %s", a)
		}
	}
}

func TestDefaultDeny(t *testing.T) {
	tbl := MustNewTable(map[string]map[string]Grant{
		"faculty": {"publications": {Read: true}},
	})

	cases := []struct {
		role, resource string
		action         Action
	}{
		{"faculty", "publications", ActionUpdate},
		{"faculty", "awards", ActionRead},
		{"student", "publications", ActionRead},
		{"faculty", "publications", Action("approve")},
		{"", "", ActionRead},
	}
	for _, tc := range cases {
		if tbl.Allows(tc.role, tc.resource, tc.action) {
			t.Fatalf("expected deny for %+v", tc)
		}
	}
	if !tbl.Allows("faculty", "publications", ActionRead) {
		t.Fatal("expected explicit grant to allow")
	}
}

func TestNilTableDenies(t *testing.T) {
	var tbl *Table
	if tbl.Allows("admin", "users", ActionRead) {
		t.Fatal("nil table must deny")
	}
	if tbl.PermissionsFor("admin") != nil {
		t.Fatal("nil table must have no permissions")
	}
}

func TestNewTableIsIsolatedFromInput(t *testing.T) {
	def := map[string]map[string]Grant{"staff": {"reports": ReadOnly}}
	tbl := MustNewTable(def)

	def["staff"]["reports"] = Manage
	def["staff"]["users"] = Manage

	if tbl.Allows("staff", "reports", ActionDelete) {
		t.Fatal("mutating the input map must not change the table")
	}
	if tbl.Allows("staff", "users", ActionRead) {
		t.Fatal("mutating the input map must not add resources")
	}
}

func TestNewTableValidation(t *testing.T) {
	if _, err := NewTable(nil); err == nil {
		t.Fatal("expected empty table to fail")
	}
	if _, err := NewTable(map[string]map[string]Grant{" ": {"a": ReadOnly}}); err == nil {
		t.Fatal("expected empty role to fail")
	}
	if _, err := NewTable(map[string]map[string]Grant{"r": {"a:b": ReadOnly}}); err == nil {
		t.Fatal("expected resource containing ':' to fail")
	}
}

func TestPermissionsForExpandsManage(t *testing.T) {
	tbl := MustNewTable(map[string]map[string]Grant{
		"head": {"awards": Manage, "reports": {Create: true, Read: true}},
	})
	got := tbl.PermissionsFor("head")
	want := []string{
		"awards:create", "awards:delete", "awards:manage", "awards:read", "awards:update",
		"reports:create", "reports:read",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}

	got[0] = "mutated"
	if tbl.PermissionsFor("head")[0] != "awards:create" {
		t.Fatal("PermissionsFor must return a copy")
	}
}

func TestAllowsString(t *testing.T) {
	tbl := DefaultPortalTable()
	if !tbl.AllowsString("faculty", "publications:update") {
		t.Fatal("faculty should update publications")
	}
	if tbl.AllowsString("faculty", "users:read") {
		t.Fatal("faculty should not read users")
	}
	for _, bad := range []string{"", "publications", ":read", "publications:fly"} {
		if tbl.AllowsString("admin", bad) {
			t.Fatalf("malformed permission %q must deny", bad)
		}
	}
}

func TestDefaultPortalTable(t *testing.T) {
	tbl := DefaultPortalTable()
	roles := tbl.Roles()
	if len(roles) != 6 {
		t.Fatalf("expected six roles, got %v", roles)
	}
	for _, r := range Resources {
		for _, a := range Actions {
			if !tbl.Allows("admin", r, a) {
				t.Fatalf("admin must be allowed %s on %s", a, r)
			}
		}
	}
	if tbl.Allows("guest", ResourceReports, ActionRead) {
		t.Fatal("guest must not read reports")
	}
	if !tbl.Allows("department_head", ResourceAwards, ActionDelete) {
		t.Fatal("department head manages awards")
	}
	if tbl.Allows("student", ResourceUploads, ActionCreate) {
		t.Fatal("students must not upload")
	}
}

func TestActionForMethod(t *testing.T) {
	cases := map[string]Action{
		http.MethodGet:     ActionRead,
		http.MethodHead:    ActionRead,
		http.MethodOptions: ActionRead,
		http.MethodPost:    ActionCreate,
		http.MethodPut:     ActionUpdate,
		http.MethodPatch:   ActionUpdate,
		http.MethodDelete:  ActionDelete,
	}
	for method, want := range cases {
		if got := ActionForMethod(method); got != want {
			t.Fatalf("%s: got %s want %s", method, got, want)
		}
	}
}

func TestTableConcurrentReads(t *testing.T) {
	tbl := DefaultPortalTable()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				_ = tbl.Allows("faculty", ResourcePublications, ActionRead)
				_ = tbl.PermissionsFor("staff")
			}
		}()
	}
	wg.Wait()
}
