package permission

// Portal resources.
const (
	ResourceFacultyProfile   = "faculty_profile"
	ResourcePublications     = "publications"
	ResourceAwards           = "awards"
	ResourceResearchProjects = "research_projects"
	ResourceDepartments      = "departments"
	ResourceUsers            = "users"
	ResourceReports          = "reports"
	ResourceUploads          = "uploads"
	ResourceSettings         = "settings"
	ResourceAuditLogs        = "audit_logs"
)

// Resources lists every portal resource.
var Resources = []string{
	ResourceFacultyProfile,
	ResourcePublications,
	ResourceAwards,
	ResourceResearchProjects,
	ResourceDepartments,
	ResourceUsers,
	ResourceReports,
	ResourceUploads,
	ResourceSettings,
	ResourceAuditLogs,
}

// DefaultPortalGrants returns a fresh copy of the portal's role table, keyed by
// role name. Callers may edit the copy before passing it to NewTable.
func DefaultPortalGrants() map[string]map[string]Grant {
	admin := make(map[string]Grant, len(Resources))
	for _, r := range Resources {
		admin[r] = Manage
	}

	return map[string]map[string]Grant{
		"admin": admin,
		"department_head": {
			ResourceFacultyProfile:   {Read: true, Update: true},
			ResourcePublications:     Manage,
			ResourceAwards:           Manage,
			ResourceResearchProjects: Manage,
			ResourceDepartments:      {Read: true, Update: true},
			ResourceUsers:            ReadOnly,
			ResourceReports:          {Create: true, Read: true},
			ResourceUploads:          {Create: true, Read: true, Delete: true},
		},
		"faculty": {
			ResourceFacultyProfile:   {Read: true, Update: true},
			ResourcePublications:     CRUD,
			ResourceAwards:           CRUD,
			ResourceResearchProjects: CRUD,
			ResourceDepartments:      ReadOnly,
			ResourceReports:          ReadOnly,
			ResourceUploads:          {Create: true, Read: true, Delete: true},
		},
		"staff": {
			ResourceFacultyProfile: ReadOnly,
			ResourcePublications:   ReadOnly,
			ResourceAwards:         ReadOnly,
			ResourceDepartments:    ReadOnly,
			ResourceUsers:          ReadOnly,
			ResourceReports:        {Create: true, Read: true},
			ResourceUploads:        {Create: true, Read: true},
		},
		"student": {
			ResourceFacultyProfile: ReadOnly,
			ResourcePublications:   ReadOnly,
			ResourceAwards:         ReadOnly,
			ResourceDepartments:    ReadOnly,
		},
		"guest": {
			ResourceFacultyProfile: ReadOnly,
			ResourcePublications:   ReadOnly,
		},
	}
}

// DefaultPortalTable builds the immutable table from DefaultPortalGrants.
func DefaultPortalTable() *Table {
	return MustNewTable(DefaultPortalGrants())
}
