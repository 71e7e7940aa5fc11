// Package service implements the authentication state machine: how an
// account moves between unverified, verified, locked and active-session
// states, and how bearer tokens, verification PINs and attempt-reset
// tokens are issued, validated, expired and revoked.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"time"

	"verigate/auth-api/model"
	"verigate/auth-api/pkg/security"
	"verigate/auth-api/store"

	"go.uber.org/zap"
)

// Hasher is the one-way credential hasher consumed by the service.
type Hasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, hash string) (bool, error)
}

// Auth orchestrates signup, verification, login, logout, token
// validation and attempt-reset flows. Every operation is one
// read-then-conditionally-write unit of work against the store.
type Auth struct {
	store        store.UserStore
	notifier     Notifier
	hasher       Hasher
	clock        Clock
	emailChecker EmailChecker
	cfg          Config

	loginLimiter        *AttemptLimiter
	verificationLimiter *AttemptLimiter
}

func NewAuth(st store.UserStore, notifier Notifier, hasher Hasher, clock Clock, cfg Config) *Auth {
	return &Auth{
		store:    st,
		notifier: notifier,
		hasher:   hasher,
		clock:    clock,
		cfg:      cfg,

		loginLimiter: NewAttemptLimiter(st, clock, store.LoginAttempts,
			cfg.MaxLoginAttempts, cfg.BlockDuration),
		verificationLimiter: NewAttemptLimiter(st, clock, store.VerificationAttempts,
			cfg.MaxVerificationAttempts, cfg.BlockDuration),
	}
}

// WithEmailChecker attaches a deliverability prober, used by Signup when
// cfg.VerifyEmailDeliverability is set.
func (a *Auth) WithEmailChecker(c EmailChecker) *Auth {
	a.emailChecker = c
	return a
}

// EmailChecker exposes the attached prober for the standalone
// verify-email-existence endpoint.
func (a *Auth) EmailChecker() EmailChecker {
	return a.emailChecker
}

// SignupInput carries the already-validated signup fields.
type SignupInput struct {
	Email    string
	Password string
	Name     string
	Birthday time.Time
}

// Signup creates an unverified account with a fresh 4-digit PIN that
// expires in 3 minutes, then emails the PIN. Returns the new user id.
func (a *Auth) Signup(ctx context.Context, in SignupInput) (uint, error) {
	if a.cfg.VerifyEmailDeliverability && a.emailChecker != nil {
		result, err := a.emailChecker.CheckEmail(ctx, in.Email)
		if err != nil {
			return 0, fmt.Errorf("check email deliverability: %w", err)
		}
		if !result.Strict() {
			return 0, ErrUndeliverableEmail
		}
	}

	hash, err := a.hasher.HashPassword(in.Password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	pin, err := security.GeneratePIN()
	if err != nil {
		return 0, fmt.Errorf("generate verification code: %w", err)
	}

	expiresAt := a.clock.Now().Add(VerificationCodeTTL)

	user := &model.User{
		Name:                      in.Name,
		Email:                     in.Email,
		PasswordHash:              hash,
		Birthday:                  in.Birthday,
		EmailVerificationCode:     &pin,
		VerificationCodeExpiresAt: &expiresAt,
	}

	if err := a.store.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return 0, ErrEmailTaken
		}
		return 0, err
	}

	if err := a.notifier.SendVerificationCode(user.Email, pin); err != nil {
		zap.L().Error("Failed to send verification email",
			zap.Error(err), zap.String("email", user.Email))
	}

	return user.ID, nil
}

// VerifyEmail redeems a signup PIN. An expired PIN deletes the account
// outright, block window or not; a mismatch counts against the
// verification attempt limiter and, exactly when the counter first
// reaches the max, triggers a reset-verification-attempts email.
func (a *Auth) VerifyEmail(ctx context.Context, email, code string) error {
	user, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	now := a.clock.Now()

	if user.VerificationCodeExpiresAt == nil || now.After(*user.VerificationCodeExpiresAt) {
		// Expiry is a deletion trigger, not a status. The user must
		// sign up again from scratch.
		if err := a.store.Delete(ctx, user.ID); err != nil {
			return err
		}
		return ErrCodeExpired
	}

	// The block gates only the code comparison; a still-valid code can't
	// be guessed at while the window stands.
	if a.verificationLimiter.IsBlocked(user) {
		return ErrBlocked
	}

	if user.EmailVerificationCode == nil ||
		subtle.ConstantTimeCompare([]byte(*user.EmailVerificationCode), []byte(code)) != 1 {
		count, err := a.verificationLimiter.RecordFailure(ctx, user.ID)
		if err != nil {
			return err
		}

		if count == a.verificationLimiter.MaxAttempts() {
			a.sendResetVerificationAttemptsEmail(ctx, user)
		}

		return &AttemptsError{
			Err:          ErrInvalidCode,
			AttemptsLeft: a.verificationLimiter.AttemptsLeft(count),
		}
	}

	return a.store.Update(ctx, user.ID, map[string]any{
		store.ColEmailVerifiedAt:           now,
		store.ColEmailVerificationCode:     nil,
		store.ColVerificationCodeExpiresAt: nil,
		store.ColVerificationAttempts:      0,
		store.ColLastVerificationAttemptAt: nil,
	})
}

// LoginResult is the issued session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

// Login checks credentials behind the login attempt limiter and issues a
// fresh bearer token, overwriting any previous session.
func (a *Auth) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if a.loginLimiter.IsBlocked(user) {
		return nil, ErrBlocked
	}

	ok, err := a.hasher.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !ok {
		count, err := a.loginLimiter.RecordFailure(ctx, user.ID)
		if err != nil {
			return nil, err
		}

		if count == a.loginLimiter.MaxAttempts() {
			a.sendResetLoginAttemptsEmail(ctx, user)
		}

		return nil, &AttemptsError{
			Err:          ErrInvalidCredentials,
			AttemptsLeft: a.loginLimiter.AttemptsLeft(count),
		}
	}

	if err := a.loginLimiter.Reset(ctx, user.ID); err != nil {
		return nil, err
	}

	token, err := security.GenerateToken(security.SessionTokenLength)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := a.clock.Now()
	expiresAt := now.Add(a.cfg.TokenExpiration)

	err = a.store.Update(ctx, user.ID, map[string]any{
		store.ColToken:           token,
		store.ColTokenExpiresAt:  expiresAt,
		store.ColTokenLastUsedAt: now,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

// UpdateUserInput carries the optional profile fields; nil means leave
// the column untouched.
type UpdateUserInput struct {
	Name     *string
	Password *string
	Birthday *time.Time
}

// UpdateUser applies a partial profile update. The password, when
// present, is rehashed before storage.
func (a *Auth) UpdateUser(ctx context.Context, userID uint, in UpdateUserInput) error {
	fields := map[string]any{}

	if in.Name != nil {
		fields[store.ColName] = *in.Name
	}
	if in.Birthday != nil {
		fields[store.ColBirthday] = *in.Birthday
	}
	if in.Password != nil {
		hash, err := a.hasher.HashPassword(*in.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		fields[store.ColPasswordHash] = hash
	}

	if len(fields) == 0 {
		return nil
	}

	err := a.store.Update(ctx, userID, fields)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// Logout revokes the session holding the given bearer token.
func (a *Auth) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoToken
	}

	user, err := a.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	return a.clearSession(ctx, user.ID)
}

// ValidateToken resolves a bearer token to its user. Expiry is lazy: an
// expired token is cleared here and reported as ErrTokenExpired. On
// success the token's last-used time is refreshed.
func (a *Auth) ValidateToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	user, err := a.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	now := a.clock.Now()

	if user.TokenExpiresAt == nil || now.After(*user.TokenExpiresAt) {
		if err := a.clearSession(ctx, user.ID); err != nil {
			return nil, err
		}
		return nil, ErrTokenExpired
	}

	if err := a.store.Update(ctx, user.ID, map[string]any{
		store.ColTokenLastUsedAt: now,
	}); err != nil {
		return nil, err
	}

	used := now
	user.TokenLastUsedAt = &used

	return user, nil
}

// ResetLoginAttempts redeems an emailed reset link: zeroes the login
// attempt counter and consumes the one-time token.
func (a *Auth) ResetLoginAttempts(ctx context.Context, email, resetToken string) error {
	user, err := a.store.FindByResetLoginToken(ctx, email, resetToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}

	if user.ResetAttemptsTokenExpiresAt == nil || a.clock.Now().After(*user.ResetAttemptsTokenExpiresAt) {
		return ErrInvalidOrExpiredToken
	}

	return a.store.Update(ctx, user.ID, map[string]any{
		store.ColLoginAttempts:               0,
		store.ColLastLoginAttemptAt:          nil,
		store.ColResetAttemptsToken:          nil,
		store.ColResetAttemptsTokenExpiresAt: nil,
	})
}

// ResetVerificationAttempts is the verification-family counterpart of
// ResetLoginAttempts.
func (a *Auth) ResetVerificationAttempts(ctx context.Context, email, resetToken string) error {
	user, err := a.store.FindByResetVerificationToken(ctx, email, resetToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}

	if user.ResetVerificationAttemptsTokenExpiresAt == nil ||
		a.clock.Now().After(*user.ResetVerificationAttemptsTokenExpiresAt) {
		return ErrInvalidOrExpiredToken
	}

	return a.store.Update(ctx, user.ID, map[string]any{
		store.ColVerificationAttempts:                    0,
		store.ColLastVerificationAttemptAt:               nil,
		store.ColResetVerificationAttemptsToken:          nil,
		store.ColResetVerificationAttemptsTokenExpiresAt: nil,
	})
}

// CleanupExpiredSessions clears session fields of every user whose token
// expired. Idempotent and safe to run alongside lazy per-request expiry;
// both converge on the same cleared state. Returns the number of
// sessions cleared.
func (a *Auth) CleanupExpiredSessions(ctx context.Context) (int, error) {
	expired, err := a.store.ListExpiredSessions(ctx, a.clock.Now())
	if err != nil {
		return 0, err
	}

	cleared := 0
	for _, u := range expired {
		if err := a.clearSession(ctx, u.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return cleared, err
		}
		cleared++
	}

	return cleared, nil
}

func (a *Auth) clearSession(ctx context.Context, userID uint) error {
	return a.store.Update(ctx, userID, map[string]any{
		store.ColToken:           nil,
		store.ColTokenExpiresAt:  nil,
		store.ColTokenLastUsedAt: nil,
	})
}

// sendResetLoginAttemptsEmail stores a fresh one-time reset token and
// emails the link. Notifier failures are logged, never propagated; the
// block stands even if the email can't be delivered.
func (a *Auth) sendResetLoginAttemptsEmail(ctx context.Context, user *model.User) {
	token, err := security.GenerateToken(security.ResetTokenLength)
	if err != nil {
		zap.L().Error("Failed to generate reset token", zap.Error(err))
		return
	}

	expiresAt := a.clock.Now().Add(ResetTokenTTL)

	err = a.store.Update(ctx, user.ID, map[string]any{
		store.ColResetAttemptsToken:          token,
		store.ColResetAttemptsTokenExpiresAt: expiresAt,
	})
	if err != nil {
		zap.L().Error("Failed to store reset token", zap.Error(err), zap.Uint("userID", user.ID))
		return
	}

	link := fmt.Sprintf("%s/auth/reset-login-attempts?email=%s&reset_token=%s",
		a.cfg.ResetLinkBase, url.QueryEscape(user.Email), token)

	if err := a.notifier.SendResetLoginAttemptsLink(user.Email, user.Name, link); err != nil {
		zap.L().Error("Failed to send reset-login-attempts email",
			zap.Error(err), zap.String("email", user.Email))
	}
}

func (a *Auth) sendResetVerificationAttemptsEmail(ctx context.Context, user *model.User) {
	token, err := security.GenerateToken(security.ResetTokenLength)
	if err != nil {
		zap.L().Error("Failed to generate reset token", zap.Error(err))
		return
	}

	expiresAt := a.clock.Now().Add(ResetTokenTTL)

	err = a.store.Update(ctx, user.ID, map[string]any{
		store.ColResetVerificationAttemptsToken:          token,
		store.ColResetVerificationAttemptsTokenExpiresAt: expiresAt,
	})
	if err != nil {
		zap.L().Error("Failed to store reset token", zap.Error(err), zap.Uint("userID", user.ID))
		return
	}

	link := fmt.Sprintf("%s/auth/reset-verification-attempts?email=%s&reset_token=%s",
		a.cfg.ResetLinkBase, url.QueryEscape(user.Email), token)

	if err := a.notifier.SendResetVerificationAttemptsLink(user.Email, user.Name, link); err != nil {
		zap.L().Error("Failed to send reset-verification-attempts email",
			zap.Error(err), zap.String("email", user.Email))
	}
}
