package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// resetUserPasswordSQL overwrites the stored hash in one statement so the
// password update can share a transaction with token consumption.
var resetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."id" = ?
RETURNING *;`

// Users is the account repository.
type Users interface {
	repository.Repository[*User]

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error

	MarkEmailVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (int64, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, target UserStatus) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

// NewUsersRepository builds the Users repository on top of the shared
// generic Bun repository.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	user.EnsureStatus()
	return a.CreateTx(ctx, tx, user)
}

// GetByEmail looks up a user by normalized email.
func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByIdentifier(ctx, NormalizeEmail(email))
}

func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return a.ResetPasswordTx(ctx, tx, id, passwordHash)
	})
}

func (a *users) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	_, err := a.Repository.RawTx(ctx, tx, resetUserPasswordSQL, passwordHash, id.String())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reset user password")
	}
	return nil
}

// MarkEmailVerifiedTx flips is_email_verified for an unverified user and
// reports how many rows changed. Zero rows means the user is unknown or
// already verified; the flag is one-way so the predicate is in the WHERE.
func (a *users) MarkEmailVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (int64, error) {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("is_email_verified = ?", true).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Where("is_email_verified = ?", false).
		Exec(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark email verified")
	}

	return res.RowsAffected()
}

// UpdateStatus moves the user through the lifecycle graph, rejecting
// transitions the graph does not allow.
func (a *users) UpdateStatus(ctx context.Context, id uuid.UUID, target UserStatus) (*User, error) {
	user, err := a.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for status update")
	}

	user.EnsureStatus()
	if err := ValidateStatusTransition(user.Status, target); err != nil {
		return nil, err
	}

	user.Status = target
	return a.Update(ctx, user)
}
