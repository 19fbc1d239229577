package auth_test

import (
	"context"
	"testing"

	"github.com/alanhorvitz/moroccobyrasha-sub002"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStatusTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    auth.UserStatus
		to      auth.UserStatus
		wantErr bool
	}{
		{"pending to active", auth.UserStatusPending, auth.UserStatusActive, false},
		{"pending to banned", auth.UserStatusPending, auth.UserStatusBanned, false},
		{"pending to suspended", auth.UserStatusPending, auth.UserStatusSuspended, true},
		{"active to suspended", auth.UserStatusActive, auth.UserStatusSuspended, false},
		{"active to banned", auth.UserStatusActive, auth.UserStatusBanned, false},
		{"active back to pending", auth.UserStatusActive, auth.UserStatusPending, true},
		{"suspended to active", auth.UserStatusSuspended, auth.UserStatusActive, false},
		{"suspended to banned", auth.UserStatusSuspended, auth.UserStatusBanned, false},
		{"ban is terminal", auth.UserStatusBanned, auth.UserStatusActive, true},
		{"same status is a no-op", auth.UserStatusActive, auth.UserStatusActive, false},
		{"unknown origin", auth.UserStatus("frozen"), auth.UserStatusActive, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateStatusTransition(tt.from, tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, auth.ErrInvalidTransition)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	manager, repo := newTestManager(t)
	ctx := context.Background()

	user := registerTestUser(t, manager, "amina@example.com")

	t.Run("allowed transition persists", func(t *testing.T) {
		updated, err := repo.Users().UpdateStatus(ctx, user.ID, auth.UserStatusActive)
		require.NoError(t, err)
		assert.Equal(t, auth.UserStatusActive, updated.Status)

		stored, err := repo.Users().GetByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, auth.UserStatusActive, stored.Status)
	})

	t.Run("disallowed transition rejected", func(t *testing.T) {
		_, err := repo.Users().UpdateStatus(ctx, user.ID, auth.UserStatusPending)
		assert.ErrorIs(t, err, auth.ErrInvalidTransition)
	})
}
