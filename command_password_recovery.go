package auth

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// InitiatePasswordRecoveryMessage starts the reset flow for an email
// address. The handler completes without error for unknown addresses so a
// caller relaying the outcome cannot tell which emails have accounts.
type InitiatePasswordRecoveryMessage struct {
	Email      string `json:"email" doc:"Account email address."`
	OnResponse func(resp *PasswordRecoveryResponse)
}

func (m InitiatePasswordRecoveryMessage) Type() string { return "auth.password_recovery" }

// PasswordRecoveryResponse reports what the handler did. Delivered is for
// internal consumers (logs, tests); it must not be surfaced verbatim to the
// requester.
type PasswordRecoveryResponse struct {
	Token     *SingleUseToken
	Delivered bool
}

// InitiatePasswordRecoveryHandler issues a reset token and hands it to the
// mail dispatcher.
type InitiatePasswordRecoveryHandler struct {
	repo     RepositoryManager
	issuer   *TokenIssuer
	mailer   Mailer
	logger   Logger
	activity ActivitySink
}

// NewInitiatePasswordRecoveryHandler creates a handler with sane defaults.
func NewInitiatePasswordRecoveryHandler(repo RepositoryManager, issuer *TokenIssuer, mailer Mailer) *InitiatePasswordRecoveryHandler {
	return &InitiatePasswordRecoveryHandler{
		repo:     repo,
		issuer:   issuer,
		mailer:   normalizeMailer(mailer),
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *InitiatePasswordRecoveryHandler) WithLogger(logger Logger) *InitiatePasswordRecoveryHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithActivitySink configures an ActivitySink for emitting recovery events.
func (h *InitiatePasswordRecoveryHandler) WithActivitySink(sink ActivitySink) *InitiatePasswordRecoveryHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *InitiatePasswordRecoveryHandler) Execute(ctx context.Context, event InitiatePasswordRecoveryMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password recovery initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitiatePasswordRecoveryHandler) execute(ctx context.Context, event InitiatePasswordRecoveryMessage) error {
	resp := &PasswordRecoveryResponse{}

	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// Unknown address: respond as if delivered, issue nothing.
			h.respond(event, resp)
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password recovery")
	}

	token, err := h.issuer.IssueResetToken(ctx, user.ID)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue password reset token")
	}

	resp.Token = token

	if err := h.mailer.Send(ctx,
		user.Email,
		"Reset your password",
		fmt.Sprintf("/password-reset/%s", token.Token),
	); err != nil {
		h.logger.Error("password recovery email dispatch failed", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to dispatch recovery email")
	}

	resp.Delivered = true

	activity := ActivityEvent{
		EventType:  ActivityEventRecoveryRequested,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:     user.ID.String(),
		Metadata:   map[string]any{"token_id": token.ID.String()},
		OccurredAt: time.Now(),
	}
	if err := h.activity.Record(ctx, activity); err != nil {
		h.logger.Warn("activity sink error during password recovery: %v", err)
	}

	h.respond(event, resp)

	return nil
}

func (h *InitiatePasswordRecoveryHandler) respond(event InitiatePasswordRecoveryMessage, resp *PasswordRecoveryResponse) {
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}
}
