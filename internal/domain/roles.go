package domain

// Role names stored on the user record and carried in JWT claims.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Caller is the authenticated identity an operation runs as. Handlers build
// it from verified JWT claims; a zero Caller means no authenticated user.
type Caller struct {
	ID   string
	Role string
}

// LoggedIn reports whether the caller carries an authenticated identity.
func (c Caller) LoggedIn() bool { return c.ID != "" }

// ModsOrAdmins reports whether the role grants moderation powers.
func ModsOrAdmins(role string) bool {
	return role == RoleModerator || role == RoleAdmin
}

// OwnerOrModsOrAdmins reports whether the caller may act on a record owned by
// ownerID: either they own it or they hold a moderation role.
func OwnerOrModsOrAdmins(callerID, callerRole, ownerID string) bool {
	return callerID == ownerID || ModsOrAdmins(callerRole)
}
