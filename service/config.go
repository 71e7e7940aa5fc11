package service

import "time"

// Lifetimes fixed by the product, not configuration.
const (
	// VerificationCodeTTL is how long a signup PIN stays redeemable.
	VerificationCodeTTL = 3 * time.Minute
	// ResetTokenTTL is how long an emailed attempt-reset link stays valid.
	ResetTokenTTL = time.Hour
)

// Config carries every tunable the auth service and the attempt limiters
// need. It is built once during wiring; the service never reads ambient
// configuration.
type Config struct {
	MaxLoginAttempts        int
	MaxVerificationAttempts int
	BlockDuration           time.Duration
	TokenExpiration         time.Duration

	// VerifyEmailDeliverability enables the third-party deliverability
	// probe before creating an account.
	VerifyEmailDeliverability bool

	// ResetLinkBase is the external base URL reset links are built on,
	// e.g. "http://localhost:8080".
	ResetLinkBase string
}

func DefaultConfig() Config {
	return Config{
		MaxLoginAttempts:        3,
		MaxVerificationAttempts: 3,
		BlockDuration:           15 * time.Minute,
		TokenExpiration:         24 * time.Hour,
		ResetLinkBase:           "http://localhost:8080",
	}
}
