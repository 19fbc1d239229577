package auth_test

import (
	"context"
	"testing"

	"github.com/alanhorvitz/moroccobyrasha-sub002"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestAccountVerificationMessageType(t *testing.T) {
	assert.Equal(t, "auth.account_verification", auth.RequestAccountVerificationMessage{}.Type())
}

func TestRequestAccountVerification(t *testing.T) {
	_, repo := newTestDB(t)
	manager := auth.NewIdentityManager(repo, newTestConfig())
	issuer := auth.NewTokenIssuer(repo, newTestConfig())
	user := registerTestUser(t, manager, "amina@example.com")
	ctx := context.Background()

	t.Run("unverified account gets a token", func(t *testing.T) {
		mailer := &capturingMailer{}
		sink := &capturingSink{}
		handler := auth.NewRequestAccountVerificationHandler(repo, issuer, mailer).
			WithActivitySink(sink)

		var resp *auth.AccountVerificationResponse
		err := handler.Execute(ctx, auth.RequestAccountVerificationMessage{
			Email:      "amina@example.com",
			OnResponse: func(r *auth.AccountVerificationResponse) { resp = r },
		})
		require.NoError(t, err)

		require.NotNil(t, resp)
		require.NotNil(t, resp.Token)
		assert.True(t, resp.Delivered)
		assert.False(t, resp.AlreadyVerified)
		assert.Equal(t, user.ID, resp.Token.UserID)
		assert.Equal(t, auth.TokenPurposeEmailVerification, resp.Token.Purpose)

		messages := mailer.Messages()
		require.Len(t, messages, 1)
		assert.Contains(t, messages[0].Body, resp.Token.Token)

		events := sink.Events()
		require.Len(t, events, 1)
		assert.Equal(t, auth.ActivityEventVerificationIssued, events[0].EventType)
		assert.Equal(t, user.ID.String(), events[0].UserID)

		require.NoError(t, issuer.ConsumeVerificationToken(ctx, resp.Token.Token))
	})

	t.Run("already verified account gets nothing", func(t *testing.T) {
		mailer := &capturingMailer{}
		handler := auth.NewRequestAccountVerificationHandler(repo, issuer, mailer)

		var resp *auth.AccountVerificationResponse
		err := handler.Execute(ctx, auth.RequestAccountVerificationMessage{
			Email:      "amina@example.com",
			OnResponse: func(r *auth.AccountVerificationResponse) { resp = r },
		})
		require.NoError(t, err)

		require.NotNil(t, resp)
		assert.True(t, resp.AlreadyVerified)
		assert.Nil(t, resp.Token)
		assert.False(t, resp.Delivered)
		assert.Empty(t, mailer.Messages())
	})

	t.Run("unknown email completes silently", func(t *testing.T) {
		mailer := &capturingMailer{}
		handler := auth.NewRequestAccountVerificationHandler(repo, issuer, mailer)

		var resp *auth.AccountVerificationResponse
		err := handler.Execute(ctx, auth.RequestAccountVerificationMessage{
			Email:      "nobody@example.com",
			OnResponse: func(r *auth.AccountVerificationResponse) { resp = r },
		})
		require.NoError(t, err)

		require.NotNil(t, resp)
		assert.Nil(t, resp.Token)
		assert.False(t, resp.AlreadyVerified)
		assert.Empty(t, mailer.Messages())
	})
}
