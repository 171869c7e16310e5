package authz

// Identity is the session's resolved user as consumed by gate evaluations.
// All fields are read-only input; the provider that produced it owns updates.
type Identity struct {
	ID     int64
	Email  string
	Name   string
	Role   Role
	Active bool
}

// Viewer is the per-request evaluation input: the resolved identity, or the
// reason it is absent. Loading marks "not yet known" (the identity store was
// unreachable), as opposed to "known absent" (no authenticated user).
type Viewer struct {
	Identity *Identity
	Loading  bool
}

// Authenticated reports whether a resolved identity is present.
func (v Viewer) Authenticated() bool {
	return v.Identity != nil
}

// Role returns the viewer's role, or the empty role when unauthenticated.
func (v Viewer) Role() Role {
	if v.Identity == nil {
		return ""
	}
	return v.Identity.Role
}

// UserID returns the viewer's user id, or zero when unauthenticated.
func (v Viewer) UserID() int64 {
	if v.Identity == nil {
		return 0
	}
	return v.Identity.ID
}
