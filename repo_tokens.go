package auth

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SingleUseTokens stores reset and verification tokens. ConsumeTx is the
// only way a token leaves the table before its sweep: a conditional delete
// that admits exactly one winner under concurrency.
type SingleUseTokens interface {
	Create(ctx context.Context, token *SingleUseToken) (*SingleUseToken, error)
	CreateTx(ctx context.Context, tx bun.IDB, token *SingleUseToken) (*SingleUseToken, error)
	ConsumeTx(ctx context.Context, tx bun.IDB, token string, purpose TokenPurpose, now time.Time) (*SingleUseToken, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type singleUseTokens struct {
	db *bun.DB
}

var _ SingleUseTokens = (*singleUseTokens)(nil)

// NewSingleUseTokensRepository returns the Bun-backed token store.
func NewSingleUseTokensRepository(db *bun.DB) SingleUseTokens {
	return &singleUseTokens{db: db}
}

func (r *singleUseTokens) Create(ctx context.Context, token *SingleUseToken) (*SingleUseToken, error) {
	return r.CreateTx(ctx, r.db, token)
}

func (r *singleUseTokens) CreateTx(ctx context.Context, tx bun.IDB, token *SingleUseToken) (*SingleUseToken, error) {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	if _, err := tx.NewInsert().Model(token).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create single-use token")
	}

	return token, nil
}

// ConsumeTx atomically claims a token. The conditional DELETE is the
// single-winner gate: whichever transaction's delete reports one affected
// row owns the token; every other concurrent attempt sees zero rows and
// gets (nil, nil), exactly as if the token never existed. Reading the row
// first only recovers user_id for the caller; it grants nothing.
func (r *singleUseTokens) ConsumeTx(ctx context.Context, tx bun.IDB, token string, purpose TokenPurpose, now time.Time) (*SingleUseToken, error) {
	record := new(SingleUseToken)
	err := tx.NewSelect().
		Model(record).
		Where("token = ?", token).
		Where("purpose = ?", purpose).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve single-use token")
	}

	res, err := tx.NewDelete().
		Model((*SingleUseToken)(nil)).
		Where("token = ?", token).
		Where("purpose = ?", purpose).
		Where("expires_at > ?", now).
		Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume single-use token")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read consume result")
	}

	if rows == 0 {
		return nil, nil
	}

	return record, nil
}

// DeleteExpired sweeps tokens whose window has elapsed. Expired tokens are
// already unusable through ConsumeTx; this only reclaims storage.
func (r *singleUseTokens) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*SingleUseToken)(nil)).
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete expired tokens")
	}

	return res.RowsAffected()
}
