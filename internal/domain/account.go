package domain

import "time"

// Role is the closed set of account roles. It is fixed at account creation;
// there is no role-change operation.
type Role string

const (
	RoleStudent    Role = "student"
	RoleDepartment Role = "department"
	RoleAdmin      Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleDepartment, RoleAdmin:
		return true
	}
	return false
}

// Account is the domain model for every authenticated identity: students,
// department heads, and admins.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
