package domain

// Role represents an account's privilege level
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
)

// BaseRole is granted to every new account
const BaseRole = RoleUser

// AllRoles contains all valid roles, most privileged first
var AllRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleUser}

// IsValid checks if a role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}
