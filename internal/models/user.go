package models

import "time"

// Role represents a user's position in the college administration.
type Role string

const (
	RoleAdmin         Role = "admin"
	RolePrincipal     Role = "principal"
	RoleVicePrincipal Role = "vice_principal"
	RoleOffice        Role = "office"
	RoleHOD           Role = "hod"
	RoleDepartment    Role = "department"
)

// ApproverRoles are the roles allowed to approve or reject proposals,
// expenditures, amendments, and overrides.
var ApproverRoles = []Role{RoleAdmin, RoleOffice, RolePrincipal, RoleVicePrincipal}

// IsApprover reports whether the role may decide approval actions.
func (r Role) IsApprover() bool {
	for _, a := range ApproverRoles {
		if r == a {
			return true
		}
	}
	return false
}

// User represents a system user.
type User struct {
	Base
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	Role                Role       `gorm:"not null;default:department" json:"role"`
	DepartmentID        *uint      `gorm:"index" json:"department_id,omitempty"`
	IsActive            bool       `gorm:"default:true" json:"is_active"`
	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`

	Department *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
}
