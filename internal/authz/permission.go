package authz

// Role is a closed identity attribute determining baseline capabilities.
// Values are stored uppercase; NormalizeRole is the only sanctioned way to
// produce one from untrusted input.
type Role string

// Known roles. Mutually exclusive: a user holds exactly one.
const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleAuthor Role = "AUTHOR"
)

// Permission is an opaque capability token. Permissions compare by exact
// equality; their only meaning is membership in a role's permission set.
type Permission string

// Capability tokens for the console. Adding a capability means adding it here;
// there is no dynamic permission registration.
const (
	PermCreateArticle    Permission = "CREATE_ARTICLE"
	PermEditOwnArticle   Permission = "EDIT_OWN_ARTICLE"
	PermUpdateAnyArticle Permission = "UPDATE_ANY_ARTICLE"
	PermDeleteOwnArticle Permission = "DELETE_OWN_ARTICLE"
	PermDeleteAnyArticle Permission = "DELETE_ANY_ARTICLE"
	PermPublishArticle   Permission = "PUBLISH_ARTICLE"
	PermReviewArticles   Permission = "REVIEW_ARTICLES"

	PermManageCategories Permission = "MANAGE_CATEGORIES"

	PermViewAllUsers Permission = "VIEW_ALL_USERS"
	PermManageUsers  Permission = "MANAGE_USERS"
	PermManageRoles  Permission = "MANAGE_ROLES"

	PermUploadMedia Permission = "UPLOAD_MEDIA"
	PermManageMedia Permission = "MANAGE_MEDIA"

	PermViewDashboard Permission = "VIEW_DASHBOARD"
)

// rolePermissions is the single source of truth for role capabilities.
// Defined once at process start and never mutated; every role maps to a
// non-empty, duplicate-free set. Changing it requires a new deploy.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermCreateArticle,
		PermEditOwnArticle,
		PermUpdateAnyArticle,
		PermDeleteOwnArticle,
		PermDeleteAnyArticle,
		PermPublishArticle,
		PermReviewArticles,
		PermManageCategories,
		PermViewAllUsers,
		PermManageUsers,
		PermManageRoles,
		PermUploadMedia,
		PermManageMedia,
		PermViewDashboard,
	},
	RoleEditor: {
		PermCreateArticle,
		PermEditOwnArticle,
		PermUpdateAnyArticle,
		PermDeleteOwnArticle,
		PermPublishArticle,
		PermReviewArticles,
		PermManageCategories,
		PermUploadMedia,
		PermManageMedia,
		PermViewDashboard,
	},
	RoleAuthor: {
		PermCreateArticle,
		PermEditOwnArticle,
		PermDeleteOwnArticle,
		PermUploadMedia,
		PermViewDashboard,
	},
}

// Roles lists the known roles in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleEditor, RoleAuthor}
}

// Permissions returns a copy of the permission set granted to role.
// Unknown roles yield an empty set.
func Permissions(role Role) []Permission {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// AllPermissions enumerates every declared capability token, ordered as the
// ADMIN row of the matrix (which by construction holds them all).
func AllPermissions() []Permission {
	return Permissions(RoleAdmin)
}
