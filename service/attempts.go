package service

import (
	"context"
	"time"

	"verigate/auth-api/model"
	"verigate/auth-api/store"
)

// AttemptLimiter tracks consecutive failures for one attempt family
// (login or verification) and computes block status from the counter and
// a time window. Blocking is time-windowed: once BlockDuration has passed
// since the last failure the user may retry, but the counter itself only
// goes back to zero through an explicit Reset or a redeemed reset link.
type AttemptLimiter struct {
	store         store.UserStore
	clock         Clock
	kind          store.AttemptKind
	maxAttempts   int
	blockDuration time.Duration
}

func NewAttemptLimiter(st store.UserStore, clock Clock, kind store.AttemptKind, maxAttempts int, blockDuration time.Duration) *AttemptLimiter {
	return &AttemptLimiter{
		store:         st,
		clock:         clock,
		kind:          kind,
		maxAttempts:   maxAttempts,
		blockDuration: blockDuration,
	}
}

// RecordFailure bumps the family's counter through the store's atomic
// increment and returns the post-increment value.
func (l *AttemptLimiter) RecordFailure(ctx context.Context, userID uint) (int, error) {
	return l.store.IncrementAttempts(ctx, userID, l.kind, l.clock.Now())
}

// Reset zeroes the counter and clears the last-attempt timestamp.
func (l *AttemptLimiter) Reset(ctx context.Context, userID uint) error {
	counterCol, stampCol := l.columns()
	return l.store.Update(ctx, userID, map[string]any{
		counterCol: 0,
		stampCol:   nil,
	})
}

// IsBlocked reports whether the user is currently inside the block
// window: counter at or past the max and the last failure more recent
// than BlockDuration ago.
func (l *AttemptLimiter) IsBlocked(u *model.User) bool {
	count, lastAt := l.state(u)
	if count < l.maxAttempts || lastAt == nil {
		return false
	}
	return l.clock.Now().Before(lastAt.Add(l.blockDuration))
}

// MaxAttempts returns the configured threshold.
func (l *AttemptLimiter) MaxAttempts() int {
	return l.maxAttempts
}

// AttemptsLeft converts a counter value into the attempts_left reported
// to callers, clamped at zero.
func (l *AttemptLimiter) AttemptsLeft(count int) int {
	left := l.maxAttempts - count
	if left < 0 {
		return 0
	}
	return left
}

func (l *AttemptLimiter) state(u *model.User) (int, *time.Time) {
	if l.kind == store.VerificationAttempts {
		return u.VerificationAttempts, u.LastVerificationAttemptAt
	}
	return u.LoginAttempts, u.LastLoginAttemptAt
}

func (l *AttemptLimiter) columns() (counter, stamp string) {
	if l.kind == store.VerificationAttempts {
		return store.ColVerificationAttempts, store.ColLastVerificationAttemptAt
	}
	return store.ColLoginAttempts, store.ColLastLoginAttemptAt
}
