package auth

import "time"

// Default lifetimes. The bearer expiration is expressed in hours to match
// the JWT issuance math; the rest are durations.
const (
	// DefaultTokenExpiration is the bearer token lifetime in hours (7 days).
	DefaultTokenExpiration = 168
	// DefaultSessionTTL is the opaque session lifetime.
	DefaultSessionTTL = 7 * 24 * time.Hour
	// DefaultResetTokenTTL is the password reset token window.
	DefaultResetTokenTTL = 24 * time.Hour
	// DefaultVerificationTokenTTL is the email verification token window.
	DefaultVerificationTokenTTL = 24 * time.Hour
)

// StaticConfig is a plain value implementation of Config for applications
// that resolve configuration before wiring this package. Zero fields fall
// back to the package defaults.
type StaticConfig struct {
	SigningKey           string
	TokenExpiration      int
	Issuer               string
	Audience             []string
	SessionTTL           time.Duration
	ResetTokenTTL        time.Duration
	VerificationTokenTTL time.Duration
}

var _ Config = StaticConfig{}

func (c StaticConfig) GetSigningKey() string { return c.SigningKey }

func (c StaticConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return DefaultTokenExpiration
	}
	return c.TokenExpiration
}

func (c StaticConfig) GetIssuer() string { return c.Issuer }

func (c StaticConfig) GetAudience() []string { return c.Audience }

func (c StaticConfig) GetSessionTTL() time.Duration {
	if c.SessionTTL <= 0 {
		return DefaultSessionTTL
	}
	return c.SessionTTL
}

func (c StaticConfig) GetResetTokenTTL() time.Duration {
	if c.ResetTokenTTL <= 0 {
		return DefaultResetTokenTTL
	}
	return c.ResetTokenTTL
}

func (c StaticConfig) GetVerificationTokenTTL() time.Duration {
	if c.VerificationTokenTTL <= 0 {
		return DefaultVerificationTokenTTL
	}
	return c.VerificationTokenTTL
}
