package auth_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alanhorvitz/moroccobyrasha-sub002"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Amina@Example.COM", "amina@example.com"},
		{"  amina@example.com  ", "amina@example.com"},
		{"amina@example.com", "amina@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, auth.NormalizeEmail(tt.input))
	}
}

func TestUserEnsureStatus(t *testing.T) {
	user := &auth.User{}
	user.EnsureStatus()
	assert.Equal(t, auth.UserStatusPending, user.Status)

	user.Status = auth.UserStatusActive
	user.EnsureStatus()
	assert.Equal(t, auth.UserStatusActive, user.Status)
}

func TestUserSanitize(t *testing.T) {
	t.Run("nil user", func(t *testing.T) {
		var user *auth.User
		assert.Nil(t, user.Sanitize())
	})

	t.Run("drops password material", func(t *testing.T) {
		user := &auth.User{
			ID:           uuid.New(),
			Role:         auth.RoleGuide,
			FirstName:    "Amina",
			LastName:     "Benali",
			Email:        "amina@example.com",
			PasswordHash: "$2a$12$secret",
			Status:       auth.UserStatusActive,
		}

		public := user.Sanitize()
		assert.Equal(t, user.ID, public.ID)
		assert.Equal(t, user.Email, public.Email)
		assert.Equal(t, user.Role, public.Role)

		payload, err := json.Marshal(public)
		require.NoError(t, err)
		assert.NotContains(t, strings.ToLower(string(payload)), "password")
	})
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	user := &auth.User{
		ID:           uuid.New(),
		Email:        "amina@example.com",
		PasswordHash: "$2a$12$secret",
	}

	payload, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "secret")
	assert.NotContains(t, strings.ToLower(string(payload)), "password")
}

func TestSessionExpired(t *testing.T) {
	expiry := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	session := &auth.Session{ExpiresAt: expiry}

	assert.False(t, session.Expired(expiry.Add(-time.Second)))
	assert.True(t, session.Expired(expiry))
	assert.True(t, session.Expired(expiry.Add(time.Second)))
}

func TestSingleUseTokenExpired(t *testing.T) {
	expiry := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	token := &auth.SingleUseToken{ExpiresAt: expiry}

	assert.False(t, token.Expired(expiry.Add(-time.Second)))
	assert.True(t, token.Expired(expiry))
}

func TestSessionJSONHidesToken(t *testing.T) {
	session := &auth.Session{
		ID:        uuid.New(),
		Token:     "opaque-session-handle",
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(time.Hour),
	}

	payload, err := json.Marshal(session)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "opaque-session-handle")
}
