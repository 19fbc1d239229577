package auth

import "github.com/gobwas/glob"

// Permission is a named capability. The set is closed; adding a permission
// means extending AllPermissions and the matrix below, which keeps the
// change visible at compile time instead of hiding in request-time strings.
type Permission string

const (
	PermToursView       Permission = "tours.view"
	PermToursCreate     Permission = "tours.create"
	PermToursEdit       Permission = "tours.edit"
	PermToursDelete     Permission = "tours.delete"
	PermBookingsCreate  Permission = "bookings.create"
	PermBookingsManage  Permission = "bookings.manage"
	PermUsersView       Permission = "users.view"
	PermUsersManage     Permission = "users.manage"
	PermContentModerate Permission = "content.moderate"
	PermSystemAdmin     Permission = "system.admin"
)

// AllPermissions lists every known permission. PermissionsForRole filters
// this list, which keeps it consistent with HasPermission by construction.
func AllPermissions() []Permission {
	return []Permission{
		PermToursView,
		PermToursCreate,
		PermToursEdit,
		PermToursDelete,
		PermBookingsCreate,
		PermBookingsManage,
		PermUsersView,
		PermUsersManage,
		PermContentModerate,
		PermSystemAdmin,
	}
}

// permissionMatrix maps each permission to the roles allowed to exercise it.
// Loaded once at process start, read-only thereafter.
var permissionMatrix = map[Permission][]UserRole{
	PermToursView:       {RoleTourist, RoleGuide, RoleAdmin, RoleSuperAdmin},
	PermToursCreate:     {RoleGuide, RoleAdmin, RoleSuperAdmin},
	PermToursEdit:       {RoleGuide, RoleAdmin, RoleSuperAdmin},
	PermToursDelete:     {RoleAdmin, RoleSuperAdmin},
	PermBookingsCreate:  {RoleTourist, RoleGuide, RoleAdmin, RoleSuperAdmin},
	PermBookingsManage:  {RoleGuide, RoleAdmin, RoleSuperAdmin},
	PermUsersView:       {RoleAdmin, RoleSuperAdmin},
	PermUsersManage:     {RoleAdmin, RoleSuperAdmin},
	PermContentModerate: {RoleAdmin, RoleSuperAdmin},
	PermSystemAdmin:     {RoleSuperAdmin},
}

// HasPermission reports whether the role may exercise the permission. It is
// a pure lookup against the static matrix.
func HasPermission(role UserRole, permission Permission) bool {
	roles, ok := permissionMatrix[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// PermissionsForRole returns every permission the role holds.
func PermissionsForRole(role UserRole) []Permission {
	var perms []Permission
	for _, p := range AllPermissions() {
		if HasPermission(role, p) {
			perms = append(perms, p)
		}
	}
	return perms
}

type routeRule struct {
	pattern    glob.Glob
	permission Permission
}

// routeRules maps route patterns to the permission required to access them.
// Patterns use glob syntax with '/' as the separator. Routes with no
// matching pattern are accessible to every role; the upstream system is
// open by default and closing it here would silently break unmapped pages.
var routeRules = []routeRule{
	{glob.MustCompile("/api/admin/**", '/'), PermUsersManage},
	{glob.MustCompile("/api/users", '/'), PermUsersView},
	{glob.MustCompile("/api/users/**", '/'), PermUsersManage},
	{glob.MustCompile("/api/tours/create", '/'), PermToursCreate},
	{glob.MustCompile("/api/tours/*/edit", '/'), PermToursEdit},
	{glob.MustCompile("/api/tours/*/delete", '/'), PermToursDelete},
	{glob.MustCompile("/api/bookings/manage/**", '/'), PermBookingsManage},
	{glob.MustCompile("/api/moderation/**", '/'), PermContentModerate},
	{glob.MustCompile("/api/system/**", '/'), PermSystemAdmin},
}

// CanAccessRoute reports whether the role may access the route. The first
// matching rule decides; unmapped routes are open.
func CanAccessRoute(role UserRole, route string) bool {
	for _, rule := range routeRules {
		if rule.pattern.Match(route) {
			return HasPermission(role, rule.permission)
		}
	}
	return true
}

// RequirePermission returns ErrPermissionDenied unless the role holds the
// permission. Convenience for route guards that want an error, not a bool.
func RequirePermission(role UserRole, permission Permission) error {
	if !HasPermission(role, permission) {
		return ErrPermissionDenied
	}
	return nil
}
