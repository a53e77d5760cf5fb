package authz

// Permission names an operation a role may perform. The set is closed; new
// permissions are added here and assigned in roleGrants below.
type Permission string

const (
	PermNotesRead      Permission = "notes:read"
	PermNotesWrite     Permission = "notes:write"
	PermNotesModerate  Permission = "notes:moderate"
	PermUsersRead      Permission = "users:read"
	PermUsersWrite     Permission = "users:write"
	PermSessionsRead   Permission = "sessions:read"
	PermSessionsRevoke Permission = "sessions:revoke"
	PermSystemAdmin    Permission = "system:admin"
)

// roleGrants lists only what each role adds on top of the role below it.
// Every role in roleOrder must appear here; buildPermissionSets panics at
// package init otherwise, so a new role cannot ship without its grants
// being considered.
var roleGrants = map[Role][]Permission{
	RoleUser:       {PermNotesRead, PermNotesWrite},
	RoleModerator:  {PermNotesModerate},
	RoleAdmin:      {PermUsersRead, PermSessionsRead, PermSessionsRevoke},
	RoleSuperAdmin: {PermUsersWrite, PermSystemAdmin},
}

// permissionSets holds the cumulative set per role, so each role's set is a
// superset of every lower role's set by construction.
var permissionSets = buildPermissionSets()

func buildPermissionSets() map[Role]map[Permission]struct{} {
	sets := make(map[Role]map[Permission]struct{}, len(roleOrder))

	cumulative := map[Permission]struct{}{}
	for _, role := range roleOrder {
		grants, ok := roleGrants[role]
		if !ok {
			panic("authz: role " + string(role) + " has no permission grants defined")
		}
		for _, perm := range grants {
			cumulative[perm] = struct{}{}
		}

		set := make(map[Permission]struct{}, len(cumulative))
		for perm := range cumulative {
			set[perm] = struct{}{}
		}
		sets[role] = set
	}

	return sets
}

func HasPermission(role Role, permission Permission) bool {
	set, known := permissionSets[role]
	if !known {
		return false
	}
	_, granted := set[permission]
	return granted
}

func HasAllPermissions(role Role, permissions []Permission) bool {
	for _, permission := range permissions {
		if !HasPermission(role, permission) {
			return false
		}
	}
	return true
}

// PermissionsFor returns the full permission set of a role. The slice is a
// copy; callers may not mutate shared state through it.
func PermissionsFor(role Role) []Permission {
	set, known := permissionSets[role]
	if !known {
		return nil
	}

	out := make([]Permission, 0, len(set))
	for perm := range set {
		out = append(out, perm)
	}
	return out
}
