package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const storeCallTimeout = time.Second * 10

// IdentityManager owns credentials and account records: registration,
// authentication, password changes, and bearer token verification. Every
// account it returns is the sanitized PublicUser projection.
type IdentityManager struct {
	repo         RepositoryManager
	tokenService TokenService
	passwords    PasswordAuthenticator
	logger       Logger
	activity     ActivitySink
	useHashIDs   bool
}

// NewIdentityManager returns a manager wired to the repository and the
// bearer token configuration.
func NewIdentityManager(repo RepositoryManager, opts Config) *IdentityManager {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &IdentityManager{
		repo:         repo,
		tokenService: tokenService,
		passwords:    DefaultPasswordAuthenticator{},
		logger:       defLogger{},
		activity:     noopActivitySink{},
		useHashIDs:   true,
	}
}

func (m *IdentityManager) WithLogger(logger Logger) *IdentityManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (m *IdentityManager) WithActivitySink(sink ActivitySink) *IdentityManager {
	m.activity = normalizeActivitySink(sink)
	return m
}

// WithTokenService overrides the bearer token service.
func (m *IdentityManager) WithTokenService(ts TokenService) *IdentityManager {
	if ts != nil {
		m.tokenService = ts
	}
	return m
}

// WithPasswordAuthenticator overrides the credential hashing strategy.
func (m *IdentityManager) WithPasswordAuthenticator(pa PasswordAuthenticator) *IdentityManager {
	if pa != nil {
		m.passwords = pa
	}
	return m
}

// WithRandomIDs disables deterministic hashid-derived account IDs in favor
// of random UUIDs.
func (m *IdentityManager) WithRandomIDs() *IdentityManager {
	m.useHashIDs = false
	return m
}

// TokenService returns the TokenService instance used by this manager.
func (m *IdentityManager) TokenService() TokenService {
	return m.tokenService
}

// Register creates a pending, unverified account. The email must validate
// and be unused; the password must satisfy the policy. The returned shape
// carries no password-derived field.
func (m *IdentityManager) Register(ctx context.Context, input RegisterInput) (*PublicUser, error) {
	input.Email = NormalizeEmail(input.Email)

	role := RoleTourist
	if input.Role != "" {
		parsed, ok := ParseRole(input.Role)
		if !ok {
			return nil, goerrors.New("unknown or invalid role", goerrors.CategoryValidation).
				WithMetadata(map[string]any{"role": input.Role})
		}
		role = parsed
	}

	if err := input.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration input")
	}

	hash, err := m.passwords.HashPassword(input.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Role:          role,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Email:         input.Email,
		Phone:         input.Phone,
		PasswordHash:  hash,
		Status:        UserStatusPending,
		EmailVerified: false,
	}

	if m.useHashIDs {
		if id, err := hashid.NewUUID(input.Email); err == nil {
			user.ID = id
		}
	}

	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	// The unique index on email is the uniqueness guarantee. Mapping the
	// violation here keeps racing registrations on the same sentinel as the
	// plain duplicate case.
	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := m.repo.Users().RegisterTx(ctx, tx, user)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateEmail
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		user = created
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	m.emitEvent(ctx, ActivityEventUserRegistered, user.ID.String(), map[string]any{
		"email": user.Email,
		"role":  string(user.Role),
	})

	return user.Sanitize(), nil
}

// Authenticate verifies the email/password pair and issues a bearer token.
// Unknown email and wrong password produce the identical error.
func (m *IdentityManager) Authenticate(ctx context.Context, email, password string) (*PublicUser, string, error) {
	email = NormalizeEmail(email)

	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	user, err := m.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			m.emitEvent(ctx, ActivityEventLoginFailure, "", map[string]any{"identifier": email})
			return nil, "", ErrInvalidCredentials
		}
		m.logger.Error("Authenticate failed to retrieve user", "error", err)
		return nil, "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during authentication")
	}

	// Password first: a wrong password reads the same for every account, so
	// the status gate never becomes an account-existence oracle.
	if err := m.passwords.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if !goerrors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password hash")
		}
		m.emitEvent(ctx, ActivityEventLoginFailure, user.ID.String(), map[string]any{"identifier": email})
		return nil, "", ErrInvalidCredentials
	}

	user.EnsureStatus()
	if err := statusAuthError(user.Status); err != nil {
		m.logger.Warn("Authenticate blocked due to user status", "status", user.Status)
		m.emitEvent(ctx, ActivityEventLoginFailure, user.ID.String(), map[string]any{
			"identifier": email,
			"status":     string(user.Status),
		})
		return nil, "", err
	}

	token, err := m.tokenService.Generate(NewIdentityFromUser(user))
	if err != nil {
		m.logger.Error("Authenticate failed to generate bearer token", "error", err)
		return nil, "", err
	}

	m.emitEvent(ctx, ActivityEventLoginSuccess, user.ID.String(), map[string]any{"identifier": email})

	return user.Sanitize(), token, nil
}

// VerifyToken validates a bearer token and returns the sanitized identity
// it embeds. Bad signature and expiry are indistinguishable to the caller.
func (m *IdentityManager) VerifyToken(tokenString string) (Identity, error) {
	claims, err := m.tokenService.Validate(tokenString)
	if err != nil {
		m.logger.Debug("VerifyToken validation failed", "error", err)
		return nil, ErrInvalidToken
	}

	return tokenIdentity{
		id:    claims.UserID(),
		email: claims.Email(),
		role:  claims.Role(),
	}, nil
}

// ChangePassword re-verifies the old password before rehashing and storing
// the new one.
func (m *IdentityManager) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := m.repo.Users().GetByID(ctx, userID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrIdentityNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password change")
	}

	if err := m.passwords.ComparePasswordAndHash(oldPassword, user.PasswordHash); err != nil {
		if !goerrors.Is(err, ErrMismatchedHashAndPassword) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password hash")
		}
		return ErrInvalidCredentials
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := m.passwords.HashPassword(newPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
	}

	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return m.repo.Users().ResetPasswordTx(ctx, tx, user.ID, hash)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password change transaction failed")
	}

	m.emitEvent(ctx, ActivityEventPasswordChanged, user.ID.String(), nil)

	return nil
}

// UpdateStatus moves the account through the lifecycle graph and emits a
// status-change event carrying both endpoints of the transition.
func (m *IdentityManager) UpdateStatus(ctx context.Context, userID uuid.UUID, target UserStatus) (*PublicUser, error) {
	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	user, err := m.repo.Users().GetByID(ctx, userID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for status update")
	}

	user.EnsureStatus()
	from := user.Status

	updated, err := m.repo.Users().UpdateStatus(ctx, userID, target)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user status")
	}

	event := ActivityEvent{
		EventType:  ActivityEventUserStatusChanged,
		Actor:      ActorRef{ID: userID.String(), Type: "user"},
		UserID:     userID.String(),
		FromStatus: from,
		ToStatus:   updated.Status,
		Metadata:   map[string]any{},
		OccurredAt: time.Now(),
	}
	if err := normalizeActivitySink(m.activity).Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}

	return updated.Sanitize(), nil
}

func (m *IdentityManager) emitEvent(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(m.activity)

	actor := ActorRef{Type: "unknown"}
	if userID != "" {
		actor = ActorRef{ID: userID, Type: "user"}
	}

	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}
