package route

import "github.com/MrEthical07/portalAuth/permission"

// DefaultPortalRules returns the portal's route table.
func DefaultPortalRules() []Rule {
	return []Rule{
		{Prefix: "/unauthorized", Public: true},
		{Prefix: "/assets", Public: true},
		{Prefix: "/api/public", Public: true},
		{Prefix: "/api/health", Public: true},

		{Prefix: "/dashboard"},
		{Prefix: "/profile", Resource: permission.ResourceFacultyProfile, Action: permission.ActionRead},
		{Prefix: "/publications", Resource: permission.ResourcePublications, Action: permission.ActionRead},
		{Prefix: "/awards", Resource: permission.ResourceAwards, Action: permission.ActionRead},
		{Prefix: "/reports", Resource: permission.ResourceReports, Action: permission.ActionRead},
		{Prefix: "/department", RequiredRoles: []string{"admin", "department_head"}},
		{Prefix: "/admin", RequiredRoles: []string{"admin"}},

		{Prefix: "/api/faculty", Resource: permission.ResourceFacultyProfile},
		{Prefix: "/api/publications", Resource: permission.ResourcePublications},
		{Prefix: "/api/awards", Resource: permission.ResourceAwards},
		{Prefix: "/api/research", Resource: permission.ResourceResearchProjects},
		{Prefix: "/api/departments", Resource: permission.ResourceDepartments},
		{Prefix: "/api/reports", Resource: permission.ResourceReports},
		{Prefix: "/api/uploads", Resource: permission.ResourceUploads},
		{Prefix: "/api/users", Resource: permission.ResourceUsers},
		{Prefix: "/api/settings", Resource: permission.ResourceSettings},
		{Prefix: "/api/audit", Resource: permission.ResourceAuditLogs, Action: permission.ActionRead},
		{Prefix: "/api/admin", RequiredRoles: []string{"admin"}},
	}
}
