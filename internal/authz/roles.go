package authz

// Role is the closed set of account roles. Ordering is total:
// user < moderator < admin < super_admin. A higher role always carries every
// permission of the roles below it.
type Role string

const (
	RoleUser       Role = "user"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// roleOrder is the single source of truth for the hierarchy. Rank is the
// index in this slice.
var roleOrder = []Role{RoleUser, RoleModerator, RoleAdmin, RoleSuperAdmin}

var roleRank = func() map[Role]int {
	ranks := make(map[Role]int, len(roleOrder))
	for i, role := range roleOrder {
		ranks[role] = i
	}
	return ranks
}()

// ParseRole validates an externally supplied role string at the boundary.
// Inside the process a Role value is trusted to be one of the constants.
func ParseRole(raw string) (Role, bool) {
	role := Role(raw)
	_, known := roleRank[role]
	return role, known
}

// Rank returns the position of the role in the hierarchy. Unknown values
// rank below every real role.
func (r Role) Rank() int {
	rank, known := roleRank[r]
	if !known {
		return -1
	}
	return rank
}

func (r Role) String() string { return string(r) }

// HasRole reports whether actual satisfies required under the total order.
func HasRole(actual Role, required Role) bool {
	actualRank, known := roleRank[actual]
	if !known {
		return false
	}
	requiredRank, known := roleRank[required]
	if !known {
		return false
	}
	return actualRank >= requiredRank
}
