package permission

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Action is one operation a role may perform on a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionManage implies all other actions on the resource.
	ActionManage Action = "manage"
)

// Actions lists every action in canonical order.
var Actions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage}

// ParseAction maps s to a known Action.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage:
		return a, true
	}
	return "", false
}

// ActionForMethod maps an HTTP method to the action it performs.
func ActionForMethod(method string) Action {
	switch strings.ToUpper(method) {
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}

// Grant is the set of actions a role holds on one resource.
type Grant struct {
	Create bool
	Read   bool
	Update bool
	Delete bool
	Manage bool
}

// Manage is the grant that allows everything on a resource.
var Manage = Grant{Manage: true}

// CRUD allows the four basic actions without manage.
var CRUD = Grant{Create: true, Read: true, Update: true, Delete: true}

// ReadOnly allows read only.
var ReadOnly = Grant{Read: true}

// Allows reports whether g permits action.
func (g Grant) Allows(action Action) bool {
	if g.Manage {
		return true
	}
	switch action {
	case ActionCreate:
		return g.Create
	case ActionRead:
		return g.Read
	case ActionUpdate:
		return g.Update
	case ActionDelete:
		return g.Delete
	default:
		return false
	}
}

func (g Grant) empty() bool {
	return !g.Create && !g.Read && !g.Update && !g.Delete && !g.Manage
}

// Table maps role → resource → Grant.
//
// Table values are immutable after [NewTable] returns and are safe for
// concurrent use without locking.
type Table struct {
	grants map[string]map[string]Grant
	perms  map[string][]string
}

// NewTable validates and deep-copies def into an immutable Table.
func NewTable(def map[string]map[string]Grant) (*Table, error) {
	if len(def) == 0 {
		return nil, errors.New("permission table requires at least one role")
	}

	t := &Table{
		grants: make(map[string]map[string]Grant, len(def)),
		perms:  make(map[string][]string, len(def)),
	}
	for role, resources := range def {
		role = strings.TrimSpace(role)
		if role == "" {
			return nil, errors.New("permission table contains empty role")
		}
		if _, dup := t.grants[role]; dup {
			return nil, fmt.Errorf("permission table role %q defined twice", role)
		}
		copied := make(map[string]Grant, len(resources))
		for resource, grant := range resources {
			if strings.TrimSpace(resource) == "" || strings.Contains(resource, ":") {
				return nil, fmt.Errorf("permission table role %q has invalid resource %q", role, resource)
			}
			if grant.empty() {
				continue
			}
			copied[resource] = grant
		}
		t.grants[role] = copied
		t.perms[role] = expand(copied)
	}
	return t, nil
}

// MustNewTable is NewTable for package-level literals; it panics on error.
func MustNewTable(def map[string]map[string]Grant) *Table {
	t, err := NewTable(def)
	if err != nil {
		panic(err)
	}
	return t
}

// Allows is the default-deny decision function.
func (t *Table) Allows(role, resource string, action Action) bool {
	if t == nil {
		return false
	}
	resources, ok := t.grants[role]
	if !ok {
		return false
	}
	grant, ok := resources[resource]
	if !ok {
		return false
	}
	return grant.Allows(action)
}

// AllowsString checks a "resource:action" permission string.
func (t *Table) AllowsString(role, permission string) bool {
	resource, action, ok := SplitPermission(permission)
	if !ok {
		return false
	}
	return t.Allows(role, resource, action)
}

// Roles returns the table's roles sorted.
func (t *Table) Roles() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.grants))
	for role := range t.grants {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// PermissionsFor returns the sorted "resource:action" strings held by role.
// A manage grant expands to every action plus resource:manage.
// The returned slice is a copy.
func (t *Table) PermissionsFor(role string) []string {
	if t == nil {
		return nil
	}
	perms := t.perms[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// String formats resource and action as a permission string.
func String(resource string, action Action) string {
	return resource + ":" + string(action)
}

// SplitPermission parses a "resource:action" permission string.
func SplitPermission(permission string) (string, Action, bool) {
	resource, rawAction, ok := strings.Cut(permission, ":")
	if !ok || resource == "" {
		return "", "", false
	}
	action, ok := ParseAction(rawAction)
	if !ok {
		return "", "", false
	}
	return resource, action, true
}

func expand(resources map[string]Grant) []string {
	out := make([]string, 0, len(resources)*len(Actions))
	for resource, grant := range resources {
		for _, action := range Actions {
			if action == ActionManage {
				if grant.Manage {
					out = append(out, String(resource, action))
				}
				continue
			}
			if grant.Allows(action) {
				out = append(out, String(resource, action))
			}
		}
	}
	sort.Strings(out)
	return out
}
