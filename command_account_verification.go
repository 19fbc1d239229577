package auth

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// RequestAccountVerificationMessage asks for a fresh email verification
// token. Already verified accounts and unknown addresses both complete
// without issuing anything.
type RequestAccountVerificationMessage struct {
	Email      string `json:"email" doc:"Account email address."`
	OnResponse func(resp *AccountVerificationResponse)
}

func (m RequestAccountVerificationMessage) Type() string { return "auth.account_verification" }

// AccountVerificationResponse reports the handler outcome for internal
// consumers.
type AccountVerificationResponse struct {
	Token           *SingleUseToken
	AlreadyVerified bool
	Delivered       bool
}

// RequestAccountVerificationHandler issues a verification token and hands
// it to the mail dispatcher.
type RequestAccountVerificationHandler struct {
	repo     RepositoryManager
	issuer   *TokenIssuer
	mailer   Mailer
	logger   Logger
	activity ActivitySink
}

// NewRequestAccountVerificationHandler creates a handler with sane defaults.
func NewRequestAccountVerificationHandler(repo RepositoryManager, issuer *TokenIssuer, mailer Mailer) *RequestAccountVerificationHandler {
	return &RequestAccountVerificationHandler{
		repo:     repo,
		issuer:   issuer,
		mailer:   normalizeMailer(mailer),
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *RequestAccountVerificationHandler) WithLogger(logger Logger) *RequestAccountVerificationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithActivitySink configures an ActivitySink for emitting verification events.
func (h *RequestAccountVerificationHandler) WithActivitySink(sink ActivitySink) *RequestAccountVerificationHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *RequestAccountVerificationHandler) Execute(ctx context.Context, event RequestAccountVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account verification request")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestAccountVerificationHandler) execute(ctx context.Context, event RequestAccountVerificationMessage) error {
	resp := &AccountVerificationResponse{}

	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			h.respond(event, resp)
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for verification request")
	}

	if user.EmailVerified {
		resp.AlreadyVerified = true
		h.respond(event, resp)
		return nil
	}

	token, err := h.issuer.IssueVerificationToken(ctx, user.ID)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification token")
	}

	resp.Token = token

	if err := h.mailer.Send(ctx,
		user.Email,
		"Verify your email address",
		fmt.Sprintf("/verify-email/%s", token.Token),
	); err != nil {
		h.logger.Error("verification email dispatch failed", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to dispatch verification email")
	}

	resp.Delivered = true

	activity := ActivityEvent{
		EventType:  ActivityEventVerificationIssued,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:     user.ID.String(),
		Metadata:   map[string]any{"token_id": token.ID.String()},
		OccurredAt: time.Now(),
	}
	if err := h.activity.Record(ctx, activity); err != nil {
		h.logger.Warn("activity sink error during verification request: %v", err)
	}

	h.respond(event, resp)

	return nil
}

func (h *RequestAccountVerificationHandler) respond(event RequestAccountVerificationMessage, resp *AccountVerificationResponse) {
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}
}
