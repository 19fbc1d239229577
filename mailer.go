package auth

import "context"

// Mailer is the email dispatch contract. This package only hands it token
// strings embedded in link paths; template and URL construction belong to
// the caller's delivery layer.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// MailerFunc adapts a function to the Mailer interface.
type MailerFunc func(ctx context.Context, to, subject, htmlBody string) error

// Send implements Mailer.
func (f MailerFunc) Send(ctx context.Context, to, subject, htmlBody string) error {
	if f == nil {
		return nil
	}
	return f(ctx, to, subject, htmlBody)
}

type noopMailer struct{}

func (noopMailer) Send(context.Context, string, string, string) error {
	return nil
}

// NewLoggerMailer returns a Mailer that logs the notification instead of
// delivering it. Useful for development environments.
func NewLoggerMailer(logger Logger) Mailer {
	if logger == nil {
		logger = defLogger{}
	}
	return MailerFunc(func(_ context.Context, to, subject, htmlBody string) error {
		logger.Info("email notification", "to", to, "subject", subject, "body", htmlBody)
		return nil
	})
}

func normalizeMailer(m Mailer) Mailer {
	if m == nil {
		return noopMailer{}
	}
	return m
}
