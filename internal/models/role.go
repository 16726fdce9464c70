package models

// Role is the capability level a user holds inside a workspace.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

var roleRanks = map[Role]int{
	RoleUser:       1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the numeric rank of the role. Unknown roles rank 0,
// below every valid role.
func (r Role) Rank() int {
	return roleRanks[r]
}

// Satisfies reports whether a holder of r meets the given requirement.
func (r Role) Satisfies(required Role) bool {
	return r.Rank() >= required.Rank()
}

// Grantable reports whether r may be handed out through the member add,
// role change and invite endpoints. SUPER_ADMIN is never grantable; it
// only exists on the first user's bootstrap membership.
func (r Role) Grantable() bool {
	return r == RoleUser || r == RoleAdmin
}
