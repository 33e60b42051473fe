package shared

// The closed set of account roles. Authorization decisions compare
// against these values; an unknown role never passes a gate.
const (
	RoleSuperAdmin  = "super_admin"
	RoleBranchAdmin = "branch_admin"
	RoleTeacher     = "teacher"
	RoleParent      = "parent"
	RoleStudent     = "student"
	RoleStaff       = "staff"
)

// AllRoles returns every known role.
func AllRoles() []string {
	return []string{RoleSuperAdmin, RoleBranchAdmin, RoleTeacher, RoleParent, RoleStudent, RoleStaff}
}

// ValidRole reports whether role names a known role.
func ValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleBranchAdmin, RoleTeacher, RoleParent, RoleStudent, RoleStaff:
		return true
	}
	return false
}
