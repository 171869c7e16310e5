// Package authz holds the permission model of the console: the closed
// role/permission enums, the static role-permission matrix and the pure
// evaluation functions over it. Nothing here performs I/O, keeps state or
// returns errors; unknown roles simply hold no permissions.
package authz

import "strings"

// NormalizeRole maps untrusted role input onto the uppercase form used by the
// matrix. It does not validate membership; an unrecognized value simply never
// matches a matrix row. Normalization is applied once at the identity
// ingestion boundary, not defensively at every check.
func NormalizeRole(raw string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(raw)))
}

// KnownRole reports whether role has a matrix entry.
func KnownRole(role Role) bool {
	_, ok := rolePermissions[role]
	return ok
}

// HasPermission reports whether perm is a member of the role's permission set.
// Roles without a matrix entry hold no permissions.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether at least one listed permission is granted
// to role. An empty list is literally unsatisfiable and returns false;
// "no permissions required" is expressed by callers skipping the check, never
// by passing an empty list.
func HasAnyPermission(role Role, perms []Permission) bool {
	for _, p := range perms {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every listed permission is granted to
// role. The empty list follows the same contract as HasAnyPermission and
// returns false.
func HasAllPermissions(role Role, perms []Permission) bool {
	if len(perms) == 0 {
		return false
	}
	for _, p := range perms {
		if !HasPermission(role, p) {
			return false
		}
	}
	return true
}

// CanAccessResource decides access to a resource owned by ownerID. Ownership
// short-circuits: the owner may act on their own resource regardless of role
// or required permissions. Non-owners reduce exactly to HasAnyPermission.
// Ownership only ever widens access, never narrows it below the role baseline.
func CanAccessResource(role Role, userID, ownerID int64, perms []Permission) bool {
	if userID == ownerID {
		return true
	}
	return HasAnyPermission(role, perms)
}
