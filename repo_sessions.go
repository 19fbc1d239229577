package auth

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Sessions stores opaque session handles. Records are write-once: there is
// no update path, only create, read, and delete.
type Sessions interface {
	Create(ctx context.Context, session *Session) (*Session, error)
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessions struct {
	db *bun.DB
}

var _ Sessions = (*sessions)(nil)

// NewSessionsRepository returns the Bun-backed session store.
func NewSessionsRepository(db *bun.DB) Sessions {
	return &sessions{db: db}
}

func (r *sessions) Create(ctx context.Context, session *Session) (*Session, error) {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	if _, err := r.db.NewInsert().Model(session).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create session")
	}

	return session, nil
}

func (r *sessions) GetByToken(ctx context.Context, token string) (*Session, error) {
	session := new(Session)
	err := r.db.NewSelect().
		Model(session).
		Where("token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve session")
	}

	return session, nil
}

// Delete removes a session handle. Deleting an absent handle is not an
// error.
func (r *sessions) Delete(ctx context.Context, token string) error {
	_, err := r.db.NewDelete().
		Model((*Session)(nil)).
		Where("token = ?", token).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete session")
	}

	return nil
}

// DeleteExpired sweeps sessions whose window has elapsed. Expiry is already
// enforced at read time; this only reclaims storage.
func (r *sessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*Session)(nil)).
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete expired sessions")
	}

	return res.RowsAffected()
}
