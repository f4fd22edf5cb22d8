package auth

import "github.com/barysai/barysai/internal/models"

type identityKind uint8

const (
	kindGuest identityKind = iota
	kindAuthenticated
)

// Identity is who a request acts as: an authenticated user or a guest.
// The zero value is a guest. There is no placeholder user id; callers
// branch on IsGuest before touching UserID.
type Identity struct {
	kind   identityKind
	userID int64
	email  string
	role   models.Role
}

// Guest is the identity of a request without a usable session.
func Guest() Identity {
	return Identity{kind: kindGuest}
}

// Authenticated is the identity of a verified session.
func Authenticated(userID int64, email string, role models.Role) Identity {
	if role == "" {
		role = models.RoleUser
	}
	return Identity{
		kind:   kindAuthenticated,
		userID: userID,
		email:  email,
		role:   role,
	}
}

func (i Identity) IsGuest() bool {
	return i.kind != kindAuthenticated
}

// UserID panics for guests: reaching it without a guest check is a
// pipeline bug, not a runtime condition.
func (i Identity) UserID() int64 {
	if i.IsGuest() {
		panic("auth: UserID called on guest identity")
	}
	return i.userID
}

func (i Identity) Email() string {
	return i.email
}

func (i Identity) Role() models.Role {
	if i.IsGuest() {
		return ""
	}
	return i.role
}

func (i Identity) IsAdmin() bool {
	return !i.IsGuest() && i.role == models.RoleAdmin
}
