// internal/domain/principal.go
package domain

import "github.com/google/uuid"

// Role is the closed set of caller roles, ordered user < admin < superadmin.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Rank returns the position of r in the privilege hierarchy; 0 for unknown roles.
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperAdmin:
		return 3
	default:
		return 0
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r.Rank() > 0 }

// AtLeast reports whether r ranks at or above required.
func (r Role) AtLeast(required Role) bool {
	return r.Valid() && r.Rank() >= required.Rank()
}

// IsAdmin reports whether r is either administrative role.
func (r Role) IsAdmin() bool { return r.AtLeast(RoleAdmin) }

// Principal is an authenticated caller.
type Principal struct {
	ID      uuid.UUID
	Kind    PartyKind // PartyUser or PartyAdmin
	Role    Role
	Email   string
	Active  bool
	Deleted bool
}
