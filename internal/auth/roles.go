package auth

import "github.com/klarwerk/zielbord/internal/database/models"

// AssignableRoles are the roles the members API may set. super_admin is
// deliberately absent on both sides of a role change.
var AssignableRoles = []string{
	models.RoleEmployee,
	models.RoleManager,
	models.RoleHR,
	models.RoleAdmin,
}

// RoleAllowed is the single capability check used by every gated route.
func RoleAllowed(role string, required ...string) bool {
	for _, r := range required {
		if role == r {
			return true
		}
	}
	return false
}

// IsAssignableRole reports whether a role may be granted via the
// members API.
func IsAssignableRole(role string) bool {
	return RoleAllowed(role, AssignableRoles...)
}
