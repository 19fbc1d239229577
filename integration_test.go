package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alanhorvitz/moroccobyrasha-sub002"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Walks a single account through its whole life: registration, email
// verification, activation, login, session usage, password recovery, and
// logout.
func TestAccountLifecycleIntegration(t *testing.T) {
	_, repo := newTestDB(t)
	ctx := context.Background()

	sink := &capturingSink{}
	mailer := &capturingMailer{}

	manager := auth.NewIdentityManager(repo, newTestConfig()).WithActivitySink(sink)
	issuer := auth.NewTokenIssuer(repo, newTestConfig()).WithActivitySink(sink)
	sessions := auth.NewSessionManager(repo, auth.StaticConfig{SessionTTL: time.Hour})

	// Registration.
	input := auth.RegisterInput{
		Email:     "Fatima@Example.com",
		Password:  "Secret123!",
		FirstName: "Fatima",
		LastName:  "Zahra",
		Phone:     "+212612345678",
		Role:      "GUIDE",
	}

	user, err := manager.Register(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "fatima@example.com", user.Email)
	assert.Equal(t, auth.RoleGuide, user.Role)
	assert.Equal(t, auth.UserStatusPending, user.Status)
	assert.False(t, user.EmailVerified)

	// Email verification through the command handler.
	verification := auth.NewRequestAccountVerificationHandler(repo, issuer, mailer).
		WithActivitySink(sink)

	var verifyResp *auth.AccountVerificationResponse
	require.NoError(t, verification.Execute(ctx, auth.RequestAccountVerificationMessage{
		Email:      user.Email,
		OnResponse: func(r *auth.AccountVerificationResponse) { verifyResp = r },
	}))
	require.NotNil(t, verifyResp.Token)

	require.NoError(t, issuer.ConsumeVerificationToken(ctx, verifyResp.Token.Token))

	stored, err := repo.Users().GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)

	// Activation.
	activated, err := manager.UpdateStatus(ctx, user.ID, auth.UserStatusActive)
	require.NoError(t, err)
	assert.Equal(t, auth.UserStatusActive, activated.Status)

	// Login issues a bearer token; the token verifies back to the account.
	_, bearer, err := manager.Authenticate(ctx, user.Email, "Secret123!")
	require.NoError(t, err)

	identity, err := manager.VerifyToken(bearer)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), identity.ID())
	assert.Equal(t, auth.RoleGuide, identity.Role())

	// The role carried by the token drives access decisions.
	assert.True(t, auth.CanAccessRoute(identity.Role(), "/api/tours/create"))
	assert.False(t, auth.CanAccessRoute(identity.Role(), "/api/admin/dashboard"))

	// An opaque session rides alongside the bearer token.
	session, err := sessions.Create(ctx, user.ID)
	require.NoError(t, err)

	resolved, err := sessions.Get(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.UserID)

	// Password recovery.
	recovery := auth.NewInitiatePasswordRecoveryHandler(repo, issuer, mailer).
		WithActivitySink(sink)

	var recoveryResp *auth.PasswordRecoveryResponse
	require.NoError(t, recovery.Execute(ctx, auth.InitiatePasswordRecoveryMessage{
		Email:      user.Email,
		OnResponse: func(r *auth.PasswordRecoveryResponse) { recoveryResp = r },
	}))
	require.NotNil(t, recoveryResp.Token)

	require.NoError(t, issuer.ConsumeResetToken(ctx, recoveryResp.Token.Token, "Rotated456!"))

	_, _, err = manager.Authenticate(ctx, user.Email, "Secret123!")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = manager.Authenticate(ctx, user.Email, "Rotated456!")
	require.NoError(t, err)

	// Logout.
	require.NoError(t, sessions.Delete(ctx, session.Token))
	_, err = sessions.Get(ctx, session.Token)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)

	// Two messages went out: verification then recovery.
	messages := mailer.Messages()
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0].Body, verifyResp.Token.Token)
	assert.Contains(t, messages[1].Body, recoveryResp.Token.Token)

	// The audit trail covers the whole journey.
	types := sink.Types()
	assert.Contains(t, types, auth.ActivityEventUserRegistered)
	assert.Contains(t, types, auth.ActivityEventVerificationIssued)
	assert.Contains(t, types, auth.ActivityEventEmailVerified)
	assert.Contains(t, types, auth.ActivityEventUserStatusChanged)
	assert.Contains(t, types, auth.ActivityEventLoginSuccess)
	assert.Contains(t, types, auth.ActivityEventLoginFailure)
	assert.Contains(t, types, auth.ActivityEventRecoveryRequested)
	assert.Contains(t, types, auth.ActivityEventPasswordReset)
}
