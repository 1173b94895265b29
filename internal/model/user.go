package model

import "time"

// Role controls what a user may do.
type Role string

const (
	RoleAccountant Role = "accountant"
	RoleDirector   Role = "director"
	RoleAuditor    Role = "auditor"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAccountant, RoleDirector, RoleAuditor:
		return true
	}
	return false
}

// Permission names a guarded operation.
type Permission string

const (
	PermEnterEntries    Permission = "enter_entries"
	PermViewReports     Permission = "view_reports"
	PermManageProjects  Permission = "manage_projects"
	PermValidateEntries Permission = "validate_entries"
	PermCloseFiscalYear Permission = "close_fiscal_year"
	PermManageUsers     Permission = "manage_users"
	PermManageSettings  Permission = "manage_settings"
	PermViewAuditTrail  Permission = "view_audit_trail"
	PermExportData      Permission = "export_data"
)

var rolePermissions = map[Role][]Permission{
	RoleAccountant: {PermEnterEntries, PermViewReports, PermManageProjects, PermExportData},
	RoleDirector: {PermEnterEntries, PermViewReports, PermManageProjects,
		PermValidateEntries, PermCloseFiscalYear, PermManageUsers, PermManageSettings,
		PermViewAuditTrail, PermExportData},
	RoleAuditor: {PermViewReports, PermViewAuditTrail, PermExportData},
}

// User is an application user.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	LastLoginAt  time.Time `json:"last_login_at,omitzero"`
	CreatedAt    time.Time `json:"created_at"`
}

// Can reports whether the user's role grants a permission.
func (u User) Can(p Permission) bool {
	for _, granted := range rolePermissions[u.Role] {
		if granted == p {
			return true
		}
	}
	return false
}
