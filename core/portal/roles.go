package portal

import "strings"

type Role string

const (
	RoleStudent        Role = "student"
	RoleAdmin          Role = "admin"
	RoleFaculty        Role = "faculty"
	RoleSite           Role = "site"
	RoleSiteSupervisor Role = "site_supervisor"
)

var (
	AllRoles  = []Role{RoleStudent, RoleAdmin, RoleFaculty, RoleSite, RoleSiteSupervisor}
	SiteRoles = []Role{RoleSite, RoleSiteSupervisor}
)

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// AccountRole is the upper-case role used by the account management endpoints.
type AccountRole string

const (
	AccountAdmin   AccountRole = "ADMIN"
	AccountFaculty AccountRole = "FACULTY"
	AccountSite    AccountRole = "SITE"
	AccountStudent AccountRole = "STUDENT"
)

// Role maps an account role to the session role.
func (r AccountRole) Role() Role {
	switch AccountRole(strings.ToUpper(string(r))) {
	case AccountFaculty:
		return RoleFaculty
	case AccountSite:
		return RoleSite
	case AccountStudent:
		return RoleStudent
	default:
		return RoleAdmin
	}
}

func (r Role) AccountRole() AccountRole {
	switch r {
	case RoleFaculty:
		return AccountFaculty
	case RoleSite, RoleSiteSupervisor:
		return AccountSite
	case RoleStudent:
		return AccountStudent
	default:
		return AccountAdmin
	}
}

// Principal is the signed-in user: a role plus the foreign key of the matching record.
type Principal struct {
	Role      Role   `json:"role"`
	StudentID string `json:"studentId,omitempty"`
	FacultyID string `json:"facultyId,omitempty"`
	SiteID    string `json:"siteId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
}

// ID returns the id of the record behind the principal, "admin" for the office.
func (p Principal) ID() string {
	switch {
	case p.StudentID != "":
		return p.StudentID
	case p.FacultyID != "":
		return p.FacultyID
	case p.SiteID != "":
		return p.SiteID
	}
	return string(p.Role)
}

func (p Principal) IsSite() bool { return p.Role == RoleSite || p.Role == RoleSiteSupervisor }

// AllowedRoles reports whether current may access a resource restricted to allowed.
// An empty allow list means no restriction; a nil principal is never allowed otherwise.
func AllowedRoles(allowed []Role, current *Principal) bool {
	if len(allowed) == 0 {
		return true
	}
	if current == nil || current.Role == "" {
		return false
	}
	for _, role := range allowed {
		if role == current.Role {
			return true
		}
	}
	return false
}
