package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// SessionManager mints, resolves, and revokes opaque session handles. A
// handle proves a prior successful authentication for a fixed window;
// sessions are never extended or renewed in place, re-authentication mints
// a new one.
type SessionManager struct {
	repo   RepositoryManager
	ttl    time.Duration
	logger Logger
	now    func() time.Time
}

// NewSessionManager returns a manager using the configured session TTL.
func NewSessionManager(repo RepositoryManager, opts Config) *SessionManager {
	return &SessionManager{
		repo:   repo,
		ttl:    opts.GetSessionTTL(),
		logger: defLogger{},
		now:    time.Now,
	}
}

func (s *SessionManager) WithLogger(logger Logger) *SessionManager {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithClock injects a custom clock (useful for tests).
func (s *SessionManager) WithClock(clock func() time.Time) *SessionManager {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Create mints an unguessable session handle for the user.
func (s *SessionManager) Create(ctx context.Context, userID uuid.UUID) (*Session, error) {
	token, err := newOpaqueToken(sessionTokenBytes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &Session{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
	}

	created, err := s.repo.Sessions().Create(ctx, session)
	if err != nil {
		s.logger.Error("Create session failed", "error", err)
		return nil, err
	}

	return created, nil
}

// Get resolves a session handle. Unknown and expired handles produce the
// same ErrSessionNotFound: expiry is enforced here, at read time, and the
// caller learns nothing about whether the handle ever existed. Expired rows
// may linger until DeleteExpired sweeps them.
func (s *SessionManager) Get(ctx context.Context, token string) (*Session, error) {
	session, err := s.repo.Sessions().GetByToken(ctx, token)
	if err != nil {
		if goerrors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("Get session failed", "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve session")
	}

	if session.Expired(s.now()) {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// Delete revokes a session handle. Idempotent: revoking an absent handle
// is not an error.
func (s *SessionManager) Delete(ctx context.Context, token string) error {
	return s.repo.Sessions().Delete(ctx, token)
}

// DeleteExpired reclaims storage held by expired sessions and reports how
// many rows were removed.
func (s *SessionManager) DeleteExpired(ctx context.Context) (int64, error) {
	return s.repo.Sessions().DeleteExpired(ctx, s.now())
}
