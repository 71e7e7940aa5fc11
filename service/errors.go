package service

import (
	"errors"
	"fmt"
)

var (
	// ErrEmailTaken is returned by Signup when the email is registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUndeliverableEmail is returned when strict deliverability checks fail.
	ErrUndeliverableEmail = errors.New("email address is not deliverable")
	// ErrUserNotFound is returned when no account matches the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials deliberately reads the same whether the user is
	// missing or the password is wrong, to avoid account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrBlocked is returned while an attempt family is inside its block window.
	ErrBlocked = errors.New("too many attempts, please reset your attempts")
	// ErrInvalidCode is returned on a verification PIN mismatch.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrCodeExpired is returned when the PIN expired. The account is deleted
	// as a side effect; the user must sign up again.
	ErrCodeExpired = errors.New("verification code has expired")
	// ErrInvalidOrExpiredToken is returned for bad attempt-reset tokens.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	// ErrNoToken is returned when the request carries no bearer token.
	ErrNoToken = errors.New("no token provided")
	// ErrInvalidToken is returned when no user holds the presented token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when the session token expired. The token
	// fields are cleared before the error is returned.
	ErrTokenExpired = errors.New("token has expired")
)

// AttemptsError wraps a credential or code failure with the number of
// attempts the caller has left before the block window starts.
type AttemptsError struct {
	Err          error
	AttemptsLeft int
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("%s (%d attempts left)", e.Err.Error(), e.AttemptsLeft)
}

func (e *AttemptsError) Unwrap() error {
	return e.Err
}
