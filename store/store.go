// Package store defines the persistence boundary of the auth service.
// The service only ever talks to the UserStore interface; gorm.go is the
// production implementation and memory.go backs the tests.
package store

import (
	"context"
	"errors"
	"time"

	"verigate/auth-api/model"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by Create when the email is taken.
	ErrDuplicateEmail = errors.New("email already registered")
)

// AttemptKind selects which attempt family an atomic increment targets.
type AttemptKind string

const (
	LoginAttempts        AttemptKind = "login"
	VerificationAttempts AttemptKind = "verification"
)

// Column names accepted by Update. Both implementations understand the
// same set, so partial updates written against gorm also work against
// the in-memory store.
const (
	ColName         = "name"
	ColPasswordHash = "password_hash"
	ColBirthday     = "birthday"

	ColEmailVerificationCode     = "email_verification_code"
	ColVerificationCodeExpiresAt = "verification_code_expires_at"
	ColEmailVerifiedAt           = "email_verified_at"

	ColVerificationAttempts      = "verification_attempts"
	ColLastVerificationAttemptAt = "last_verification_attempt_at"

	ColResetVerificationAttemptsToken          = "reset_verification_attempts_token"
	ColResetVerificationAttemptsTokenExpiresAt = "reset_verification_attempts_token_expires_at"

	ColToken           = "token"
	ColTokenExpiresAt  = "token_expires_at"
	ColTokenLastUsedAt = "token_last_used_at"

	ColLoginAttempts      = "login_attempts"
	ColLastLoginAttemptAt = "last_login_attempt_at"

	ColResetAttemptsToken          = "reset_attempts_token"
	ColResetAttemptsTokenExpiresAt = "reset_attempts_token_expires_at"
)

// UserStore is the persistence contract consumed by the auth service.
// All operations are fallible; lookups return ErrNotFound when nothing
// matches and anything else is a storage failure.
type UserStore interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByToken(ctx context.Context, token string) (*model.User, error)
	FindByResetLoginToken(ctx context.Context, email, token string) (*model.User, error)
	FindByResetVerificationToken(ctx context.Context, email, token string) (*model.User, error)

	Create(ctx context.Context, u *model.User) error

	// Update applies a partial field update keyed by the Col* constants.
	// A nil value clears the column.
	Update(ctx context.Context, id uint, fields map[string]any) error

	Delete(ctx context.Context, id uint) error

	// IncrementAttempts atomically bumps the counter of the given family,
	// stamps its last-attempt time and returns the post-increment value.
	// Concurrent failed attempts must each observe a distinct count.
	IncrementAttempts(ctx context.Context, id uint, kind AttemptKind, at time.Time) (int, error)

	// ListExpiredSessions returns users holding a token whose expiry has
	// passed. Used by the cleanup sweep.
	ListExpiredSessions(ctx context.Context, now time.Time) ([]model.User, error)
}
