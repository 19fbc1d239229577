package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TokenIssuer mints and consumes single-use tokens for password reset and
// email verification. Consumption and the associated account mutation are
// one transaction built around the store's conditional delete, so a token
// can never complete its mutation twice.
type TokenIssuer struct {
	repo            RepositoryManager
	resetTTL        time.Duration
	verificationTTL time.Duration
	logger          Logger
	activity        ActivitySink
	now             func() time.Time
}

// NewTokenIssuer returns an issuer using the configured token windows.
func NewTokenIssuer(repo RepositoryManager, opts Config) *TokenIssuer {
	return &TokenIssuer{
		repo:            repo,
		resetTTL:        opts.GetResetTokenTTL(),
		verificationTTL: opts.GetVerificationTokenTTL(),
		logger:          defLogger{},
		activity:        noopActivitySink{},
		now:             time.Now,
	}
}

func (i *TokenIssuer) WithLogger(logger Logger) *TokenIssuer {
	if logger != nil {
		i.logger = logger
	}
	return i
}

// WithActivitySink configures an ActivitySink for emitting token events.
func (i *TokenIssuer) WithActivitySink(sink ActivitySink) *TokenIssuer {
	i.activity = normalizeActivitySink(sink)
	return i
}

// WithClock injects a custom clock (useful for tests).
func (i *TokenIssuer) WithClock(clock func() time.Time) *TokenIssuer {
	if clock != nil {
		i.now = clock
	}
	return i
}

// IssueResetToken mints a password reset token. Outstanding tokens for the
// same user stay valid; issuing does not revoke earlier ones.
func (i *TokenIssuer) IssueResetToken(ctx context.Context, userID uuid.UUID) (*SingleUseToken, error) {
	return i.issue(ctx, userID, TokenPurposePasswordReset, i.resetTTL)
}

// IssueVerificationToken mints an email verification token.
func (i *TokenIssuer) IssueVerificationToken(ctx context.Context, userID uuid.UUID) (*SingleUseToken, error) {
	return i.issue(ctx, userID, TokenPurposeEmailVerification, i.verificationTTL)
}

func (i *TokenIssuer) issue(ctx context.Context, userID uuid.UUID, purpose TokenPurpose, ttl time.Duration) (*SingleUseToken, error) {
	if _, err := i.repo.Users().GetByID(ctx, userID.String()); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for token issuance")
	}

	value, err := newOpaqueToken(singleUseTokenBytes)
	if err != nil {
		return nil, err
	}

	token := &SingleUseToken{
		ID:        uuid.New(),
		Token:     value,
		UserID:    userID,
		Purpose:   purpose,
		ExpiresAt: i.now().Add(ttl),
	}

	created, err := i.repo.SingleUseTokens().Create(ctx, token)
	if err != nil {
		i.logger.Error("token issuance failed", "purpose", string(purpose), "error", err)
		return nil, err
	}

	return created, nil
}

// ConsumeResetToken atomically spends a reset token and applies the new
// password. Missing, already consumed, and expired tokens all fail with
// the same ErrInvalidOrExpiredToken; under concurrent attempts on one
// token exactly one caller succeeds.
func (i *TokenIssuer) ConsumeResetToken(ctx context.Context, token, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	// Hash before the transaction: bcrypt is slow and must not extend the
	// store's write window.
	hash, err := HashPassword(newPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
	}

	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	var consumed *SingleUseToken

	err = i.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := i.repo.SingleUseTokens().ConsumeTx(ctx, tx, token, TokenPurposePasswordReset, i.now())
		if err != nil {
			return err
		}
		if record == nil {
			return ErrInvalidOrExpiredToken
		}

		if err := i.repo.Users().ResetPasswordTx(ctx, tx, record.UserID, hash); err != nil {
			return err
		}

		consumed = record
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	i.recordActivity(ctx, ActivityEventPasswordReset, consumed)

	return nil
}

// ConsumeVerificationToken atomically spends a verification token and flips
// the account's verified flag. A token targeting an already verified
// account fails with ErrInvalidToken and survives nothing: the transaction
// rolls back, but the token was the last chance either way.
func (i *TokenIssuer) ConsumeVerificationToken(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	var consumed *SingleUseToken

	err := i.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := i.repo.SingleUseTokens().ConsumeTx(ctx, tx, token, TokenPurposeEmailVerification, i.now())
		if err != nil {
			return err
		}
		if record == nil {
			return ErrInvalidToken
		}

		rows, err := i.repo.Users().MarkEmailVerifiedTx(ctx, tx, record.UserID)
		if err != nil {
			return err
		}
		if rows == 0 {
			// Already verified (or the account vanished). Failing here
			// rolls the delete back and reveals nothing about which.
			return ErrInvalidToken
		}

		consumed = record
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize email verification")
	}

	i.recordActivity(ctx, ActivityEventEmailVerified, consumed)

	return nil
}

// DeleteExpired reclaims storage held by expired tokens of both purposes.
func (i *TokenIssuer) DeleteExpired(ctx context.Context) (int64, error) {
	return i.repo.SingleUseTokens().DeleteExpired(ctx, i.now())
}

func (i *TokenIssuer) recordActivity(ctx context.Context, eventType ActivityEventType, token *SingleUseToken) {
	if token == nil {
		return
	}

	event := ActivityEvent{
		EventType: eventType,
		Actor: ActorRef{
			ID:   token.UserID.String(),
			Type: "user",
		},
		UserID: token.UserID.String(),
		Metadata: map[string]any{
			"token_id": token.ID.String(),
			"purpose":  string(token.Purpose),
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(i.activity).Record(ctx, event); err != nil {
		i.logger.Warn("activity sink error during token consumption: %v", err)
	}
}
