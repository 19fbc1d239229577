package auth

import "strings"

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleTourist, RoleGuide, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

var roleHierarchy = map[UserRole]int{
	RoleTourist:    0,
	RoleGuide:      1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// IsAtLeast checks if this role meets the minimum required level
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleTourist,
		RoleGuide,
		RoleAdmin,
		RoleSuperAdmin,
	}
}

// ParseRole normalizes a raw role string into a canonical UserRole. The
// source systems disagree on casing ("ADMIN" vs "admin"), so normalization
// happens here, once, at the boundary.
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(strings.ToLower(strings.TrimSpace(roleStr)))
	return role, role.IsValid()
}
