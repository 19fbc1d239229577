package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// CreateAuthTables provisions the tables this package persists to. Intended
// for embedded databases and test setups; production deployments usually
// own their migrations.
func CreateAuthTables(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*Session)(nil),
		(*SingleUseToken)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create auth table")
		}
	}

	return nil
}
