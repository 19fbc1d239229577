package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alanhorvitz/moroccobyrasha-sub002"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestInitiatePasswordRecoveryMessageType(t *testing.T) {
	assert.Equal(t, "auth.password_recovery", auth.InitiatePasswordRecoveryMessage{}.Type())
}

func TestInitiatePasswordRecovery(t *testing.T) {
	_, repo := newTestDB(t)
	manager := auth.NewIdentityManager(repo, newTestConfig())
	issuer := auth.NewTokenIssuer(repo, newTestConfig())
	user := registerTestUser(t, manager, "amina@example.com")
	ctx := context.Background()

	t.Run("known email issues a token and dispatches mail", func(t *testing.T) {
		mailer := &capturingMailer{}
		sink := &capturingSink{}
		handler := auth.NewInitiatePasswordRecoveryHandler(repo, issuer, mailer).
			WithActivitySink(sink)

		var resp *auth.PasswordRecoveryResponse
		err := handler.Execute(ctx, auth.InitiatePasswordRecoveryMessage{
			Email:      "amina@example.com",
			OnResponse: func(r *auth.PasswordRecoveryResponse) { resp = r },
		})
		require.NoError(t, err)

		require.NotNil(t, resp)
		require.NotNil(t, resp.Token)
		assert.True(t, resp.Delivered)
		assert.Equal(t, user.ID, resp.Token.UserID)

		messages := mailer.Messages()
		require.Len(t, messages, 1)
		assert.Equal(t, "amina@example.com", messages[0].To)
		assert.Contains(t, messages[0].Body, resp.Token.Token)

		events := sink.Events()
		require.Len(t, events, 1)
		assert.Equal(t, auth.ActivityEventRecoveryRequested, events[0].EventType)
		assert.Equal(t, user.ID.String(), events[0].UserID)

		// The delivered token really works.
		require.NoError(t, issuer.ConsumeResetToken(ctx, resp.Token.Token, "Rotated123!"))
	})

	t.Run("unknown email completes silently", func(t *testing.T) {
		mailer := &capturingMailer{}
		sink := &capturingSink{}
		handler := auth.NewInitiatePasswordRecoveryHandler(repo, issuer, mailer).
			WithActivitySink(sink)

		var resp *auth.PasswordRecoveryResponse
		err := handler.Execute(ctx, auth.InitiatePasswordRecoveryMessage{
			Email:      "nobody@example.com",
			OnResponse: func(r *auth.PasswordRecoveryResponse) { resp = r },
		})
		require.NoError(t, err)

		require.NotNil(t, resp)
		assert.Nil(t, resp.Token)
		assert.False(t, resp.Delivered)
		assert.Empty(t, mailer.Messages())
		assert.Empty(t, sink.Events())
	})

	t.Run("email lookup is case-insensitive", func(t *testing.T) {
		mailer := &capturingMailer{}
		handler := auth.NewInitiatePasswordRecoveryHandler(repo, issuer, mailer)

		err := handler.Execute(ctx, auth.InitiatePasswordRecoveryMessage{Email: "AMINA@Example.com"})
		require.NoError(t, err)
		assert.Len(t, mailer.Messages(), 1)
	})

	t.Run("mailer failure surfaces", func(t *testing.T) {
		mailer := new(MockMailer)
		mailer.On("Send", mock.Anything, "amina@example.com", mock.Anything, mock.Anything).
			Return(errors.New("smtp unavailable")).Once()

		handler := auth.NewInitiatePasswordRecoveryHandler(repo, issuer, mailer)

		err := handler.Execute(ctx, auth.InitiatePasswordRecoveryMessage{Email: "amina@example.com"})
		assert.Error(t, err)
		mailer.AssertExpectations(t)
	})

	t.Run("cancelled context rejected", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		handler := auth.NewInitiatePasswordRecoveryHandler(repo, issuer, &capturingMailer{})
		err := handler.Execute(cancelled, auth.InitiatePasswordRecoveryMessage{Email: "amina@example.com"})
		assert.Error(t, err)
	})
}
