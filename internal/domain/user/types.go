package user

import "errors"

var ErrInvalidRole = errors.New("invalid role")

// Role drives the permission checks on mutations. Viewers book for
// themselves, operators handle and allocate, admins administer units.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

func NewRole(value string) (Role, error) {
	role := Role(value)
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleViewer, RoleOperator, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role may handle, allocate and approve
// other users' reservations and applications.
func (r Role) IsStaff() bool {
	return r == RoleOperator || r == RoleAdmin
}
