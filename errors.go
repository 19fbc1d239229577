package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeDuplicateEmail marks registration against a taken address.
	TextCodeDuplicateEmail = "DUPLICATE_EMAIL"
	// TextCodeInvalidCredentials covers both unknown email and wrong password.
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	// TextCodeInvalidToken covers bearer and verification token failures.
	TextCodeInvalidToken = "INVALID_TOKEN"
	// TextCodeInvalidOrExpiredToken covers reset token failures.
	TextCodeInvalidOrExpiredToken = "INVALID_OR_EXPIRED_TOKEN"
	// TextCodeTokenExpired marks an expired bearer token.
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed marks an unparseable or badly signed bearer token.
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	// TextCodePermissionDenied marks a role lacking a permission.
	TextCodePermissionDenied = "PERMISSION_DENIED"
)

// ErrNoEmptyString is returned when a required string value is empty.
var ErrNoEmptyString = goerrors.New("value must not be an empty string", goerrors.CategoryBadInput)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch sentinel. It
// never leaves the package; callers see ErrInvalidCredentials.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match stored hash", goerrors.CategoryAuth)

// ErrIdentityNotFound is the error we return for non found identities.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrDuplicateEmail is returned when registering an email that already has
// an account. Email uniqueness is case-insensitive.
var ErrDuplicateEmail = goerrors.New("email address is already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials deliberately merges "no such account" and "wrong
// password" so authentication failures carry no account-existence signal.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials)

// ErrInvalidToken is returned for bearer tokens with a bad signature or past
// expiry, and for verification tokens that are missing, consumed, expired,
// or target an already verified account. The causes are indistinguishable.
var ErrInvalidToken = goerrors.New("invalid token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken)

// ErrInvalidOrExpiredToken is returned for reset tokens that are missing,
// already consumed, or past expiry. The causes are indistinguishable.
var ErrInvalidOrExpiredToken = goerrors.New("invalid or expired token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidOrExpiredToken)

// ErrTokenExpired is the structured form of a JWT expiry failure.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is the structured form of a JWT parse/signature failure.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed)

// ErrSessionNotFound is returned both for unknown and for expired session
// handles; callers cannot tell the two apart.
var ErrSessionNotFound = goerrors.New("session not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrPermissionDenied is returned when a role lacks a required permission.
var ErrPermissionDenied = goerrors.New("permission denied", goerrors.CategoryAuth).
	WithTextCode(TextCodePermissionDenied)

// ErrUserSuspended blocks authentication for suspended accounts.
var ErrUserSuspended = goerrors.New("account is suspended", goerrors.CategoryAuth).
	WithTextCode("USER_SUSPENDED")

// ErrUserBanned blocks authentication for banned accounts.
var ErrUserBanned = goerrors.New("account is banned", goerrors.CategoryAuth).
	WithTextCode("USER_BANNED")

// statusAuthError maps an account status to the sentinel that blocks
// authentication, or nil when the status may log in. Pending accounts can
// authenticate; activation is a separate concern.
func statusAuthError(status UserStatus) error {
	switch status {
	case UserStatusSuspended:
		return ErrUserSuspended
	case UserStatusBanned:
		return ErrUserBanned
	default:
		return nil
	}
}

// isUniqueViolation reports whether err is a unique-constraint failure from
// the underlying driver. Matched on message because drivers disagree on
// error types.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}

// IsTokenExpiredError will check for expired bearer tokens, including legacy
// errors that only carry the message.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for malformed bearer token errors.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
