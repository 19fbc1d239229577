package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole classifies an account. Roles form a closed set; raw strings are
// normalized through ParseRole at the system boundary and never flow into
// the core unchecked.
type UserRole string

const (
	// RoleTourist is the default role for self-registered accounts.
	RoleTourist UserRole = "tourist"
	// RoleGuide can publish and manage tours.
	RoleGuide UserRole = "guide"
	// RoleAdmin manages users and moderates content.
	RoleAdmin UserRole = "admin"
	// RoleSuperAdmin has every permission including system administration.
	RoleSuperAdmin UserRole = "super_admin"
)

// UserStatus is the account lifecycle state.
type UserStatus string

const (
	// UserStatusPending is assigned at registration, before activation.
	UserStatusPending UserStatus = "pending"
	// UserStatusActive is a fully usable account.
	UserStatusActive UserStatus = "active"
	// UserStatusSuspended is a temporary administrative lock.
	UserStatusSuspended UserStatus = "suspended"
	// UserStatusBanned is a permanent administrative lock.
	UserStatusBanned UserStatus = "banned"
)

// User is the account model. PasswordHash is tagged out of JSON entirely;
// the only externally visible shape is PublicUser.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName     string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	Status        UserStatus `bun:"status,notnull" json:"status,omitempty"`
	EmailVerified bool       `bun:"is_email_verified" json:"is_email_verified"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureStatus backfills the zero value for rows created before the status
// column existed.
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = UserStatusPending
	}
}

// Sanitize projects the user into its externally visible shape.
func (u *User) Sanitize() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:            u.ID,
		Role:          u.Role,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Phone:         u.Phone,
		Status:        u.Status,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// PublicUser is the sanitized account projection handed to callers outside
// this package. It has no password-derived field, so sanitization is
// structural rather than a serialization option.
type PublicUser struct {
	ID            uuid.UUID  `json:"id,omitempty"`
	Role          UserRole   `json:"user_role,omitempty"`
	FirstName     string     `json:"first_name,omitempty"`
	LastName      string     `json:"last_name,omitempty"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone_number,omitempty"`
	Status        UserStatus `json:"status,omitempty"`
	EmailVerified bool       `json:"is_email_verified"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// NormalizeEmail lower-cases and trims an email address. Emails are stored
// normalized, which makes the unique index case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Session is an opaque, time-bounded handle minted after authentication.
// Sessions are never mutated after creation; validity is decided at read
// time from ExpiresAt.
type Session struct {
	bun.BaseModel `bun:"table:auth_sessions,alias:sess"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"-"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Expired reports whether the session is no longer valid at the given
// instant. The boundary is inclusive: a session expires the moment now
// reaches ExpiresAt.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TokenPurpose distinguishes the two single-use token flows.
type TokenPurpose string

const (
	// TokenPurposePasswordReset tokens authorize one password change.
	TokenPurposePasswordReset TokenPurpose = "password-reset"
	// TokenPurposeEmailVerification tokens flip is_email_verified once.
	TokenPurposeEmailVerification TokenPurpose = "email-verification"
)

// SingleUseToken is an unguessable string tied to one user and one purpose,
// valid for one consumption within a fixed window. Both purposes share the
// table; the conditional consume keys on token, purpose, and expiry.
type SingleUseToken struct {
	bun.BaseModel `bun:"table:auth_tokens,alias:tok"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string       `bun:"token,notnull,unique" json:"-"`
	UserID        uuid.UUID    `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Purpose       TokenPurpose `bun:"purpose,notnull" json:"purpose,omitempty"`
	ExpiresAt     time.Time    `bun:"expires_at,notnull" json:"expires_at"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Expired reports whether the token window has elapsed.
func (t *SingleUseToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
