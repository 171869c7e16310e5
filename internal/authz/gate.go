package authz

// Requirement declares what a protected region demands of the viewer.
// The zero value demands authentication only.
type Requirement struct {
	// Permissions that must be held. Empty means no permission check at all;
	// the evaluation functions are never consulted with an empty list.
	Permissions []Permission
	// Roles that are acceptable. Empty means any role. Compared
	// case-insensitively; the role check runs before the permission check.
	Roles []Role
	// RequireAll switches the permission check from any-of to all-of.
	RequireAll bool
	// ResourceOwnerID enables the ownership short-circuit when non-zero:
	// the owner passes the permission check regardless of role.
	ResourceOwnerID int64
}

// Status classifies the outcome of a gate evaluation.
type Status int

const (
	// StatusGranted renders the protected content.
	StatusGranted Status = iota
	// StatusLoading means the identity is not yet known; no decision is made.
	StatusLoading
	// StatusUnauthenticated means no identity is present.
	StatusUnauthenticated
	// StatusRoleDenied means the identity's role is not in the accepted set.
	StatusRoleDenied
	// StatusPermissionDenied means the role lacks the required permissions.
	StatusPermissionDenied
)

// Decision is the result of evaluating a Requirement against a Viewer.
// It is recomputed on every evaluation and never persisted; denial is a
// stable, valid outcome rather than an error state.
type Decision struct {
	Status Status
	Reason string
}

// Granted reports whether the protected content should render.
func (d Decision) Granted() bool {
	return d.Status == StatusGranted
}

// Evaluate runs the gate decision tree. The checks run in a fixed order on
// every call: loading, then authentication, then role, then permission. The
// ordering prevents a denial from showing while the identity is still being
// resolved, and makes the role check take precedence over permissions.
// Evaluate is pure: no side effects, no caching, nested evaluations compose
// freely.
func Evaluate(v Viewer, req Requirement) Decision {
	if v.Loading {
		return Decision{Status: StatusLoading}
	}
	if v.Identity == nil {
		return Decision{Status: StatusUnauthenticated, Reason: "authentication required"}
	}
	if len(req.Roles) > 0 && !roleAccepted(v.Identity.Role, req.Roles) {
		return Decision{Status: StatusRoleDenied, Reason: "role not permitted"}
	}
	if len(req.Permissions) > 0 {
		var ok bool
		switch {
		case req.ResourceOwnerID != 0:
			ok = CanAccessResource(v.Identity.Role, v.Identity.ID, req.ResourceOwnerID, req.Permissions)
		case req.RequireAll:
			ok = HasAllPermissions(v.Identity.Role, req.Permissions)
		default:
			ok = HasAnyPermission(v.Identity.Role, req.Permissions)
		}
		if !ok {
			return Decision{Status: StatusPermissionDenied, Reason: "insufficient permissions"}
		}
	}
	return Decision{Status: StatusGranted}
}

// roleAccepted matches case-insensitively because accepted-role lists come
// from call sites, unlike identity roles which are normalized at ingestion.
func roleAccepted(role Role, accepted []Role) bool {
	normalized := NormalizeRole(string(role))
	for _, a := range accepted {
		if NormalizeRole(string(a)) == normalized {
			return true
		}
	}
	return false
}
