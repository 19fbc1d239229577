package auth

import goerrors "github.com/goliatone/go-errors"

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid user status transition", goerrors.CategoryValidation).
	WithTextCode("INVALID_USER_STATUS_TRANSITION").
	WithCode(goerrors.CodeBadRequest)

// statusTransitions is the account lifecycle graph. Pending accounts are
// activated once; suspension is reversible; a ban is terminal. Email
// verification is not part of this graph: is_email_verified moves
// false -> true exactly once, through verification token consumption only.
var statusTransitions = map[UserStatus]map[UserStatus]struct{}{
	UserStatusPending: {
		UserStatusActive: {},
		UserStatusBanned: {},
	},
	UserStatusActive: {
		UserStatusSuspended: {},
		UserStatusBanned:    {},
	},
	UserStatusSuspended: {
		UserStatusActive: {},
		UserStatusBanned: {},
	},
	UserStatusBanned: {},
}

// ValidateStatusTransition reports whether moving from one status to the
// other is allowed.
func ValidateStatusTransition(from, to UserStatus) error {
	if from == to {
		return nil
	}

	targets, ok := statusTransitions[from]
	if !ok {
		return ErrInvalidTransition
	}

	if _, ok := targets[to]; !ok {
		return ErrInvalidTransition
	}

	return nil
}
