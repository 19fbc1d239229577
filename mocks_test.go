package auth_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/alanhorvitz/moroccobyrasha-sub002"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// newTestDB opens an in-memory SQLite database with the auth tables
// provisioned. A single connection keeps transactions serialized, which the
// single-winner consume tests rely on.
func newTestDB(t *testing.T) (*bun.DB, auth.RepositoryManager) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, auth.CreateAuthTables(context.Background(), db))

	repo := auth.NewRepositoryManager(db)
	require.NoError(t, repo.Validate())

	return db, repo
}

func newTestConfig() auth.StaticConfig {
	return auth.StaticConfig{
		SigningKey:      "test-signing-key",
		TokenExpiration: 1,
		Issuer:          "test-issuer",
		Audience:        []string{"test-audience"},
	}
}

func newTestManager(t *testing.T) (*auth.IdentityManager, auth.RepositoryManager) {
	t.Helper()
	_, repo := newTestDB(t)
	manager := auth.NewIdentityManager(repo, newTestConfig())
	return manager, repo
}

func validRegisterInput(email string) auth.RegisterInput {
	return auth.RegisterInput{
		Email:     email,
		Password:  "Secret123!",
		FirstName: "Amina",
		LastName:  "Benali",
	}
}

func registerTestUser(t *testing.T, manager *auth.IdentityManager, email string) *auth.PublicUser {
	t.Helper()
	user, err := manager.Register(context.Background(), validRegisterInput(email))
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

// capturingSink records every activity event it receives.
type capturingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, event auth.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturingSink) Events() []auth.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]auth.ActivityEvent, len(c.events))
	copy(out, c.events)
	return out
}

func (c *capturingSink) Types() []auth.ActivityEventType {
	var types []auth.ActivityEventType
	for _, event := range c.Events() {
		types = append(types, event.EventType)
	}
	return types
}

// capturingMailer records every message instead of delivering it.
type capturingMailer struct {
	mu       sync.Mutex
	messages []capturedMail
}

type capturedMail struct {
	To      string
	Subject string
	Body    string
}

func (c *capturingMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, capturedMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (c *capturingMailer) Messages() []capturedMail {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]capturedMail, len(c.messages))
	copy(out, c.messages)
	return out
}

// MockTokenService implements auth.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Generate(identity auth.Identity) (string, error) {
	args := m.Called(identity)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) SignClaims(claims *auth.JWTClaims) (string, error) {
	args := m.Called(claims)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) Validate(tokenString string) (auth.AuthClaims, error) {
	args := m.Called(tokenString)
	if claims, ok := args.Get(0).(auth.AuthClaims); ok {
		return claims, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMailer implements auth.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

// TestIdentity is a plain value implementation of auth.Identity.
type TestIdentity struct {
	id    string
	email string
	role  auth.UserRole
}

func (t TestIdentity) ID() string          { return t.id }
func (t TestIdentity) Email() string       { return t.email }
func (t TestIdentity) Role() auth.UserRole { return t.role }
