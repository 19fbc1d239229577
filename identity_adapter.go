package auth

// UserIdentity adapts a User into the Identity interface for token generation.
type UserIdentity struct {
	user *User
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

// ID returns the user's ID as a string.
func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return u.user.ID.String()
}

// Email returns the user's email address.
func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

// Role returns the user's role.
func (u UserIdentity) Role() UserRole {
	if u.user == nil {
		return ""
	}
	return u.user.Role
}

// Status returns the user's lifecycle status.
func (u UserIdentity) Status() UserStatus {
	if u.user == nil {
		return ""
	}
	return u.user.Status
}

// tokenIdentity is the sanitized identity reconstructed from verified
// bearer claims. It never touched storage, so it carries exactly what the
// token carried.
type tokenIdentity struct {
	id    string
	email string
	role  UserRole
}

var _ Identity = tokenIdentity{}

func (t tokenIdentity) ID() string {
	return t.id
}

func (t tokenIdentity) Email() string {
	return t.email
}

func (t tokenIdentity) Role() UserRole {
	return t.role
}
