package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"verigate/auth-api/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests jump time forward deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeNotifier records every send instead of talking to SMTP.
type fakeNotifier struct {
	mu                     sync.Mutex
	verificationCodes      []string
	resetLoginLinks        []string
	resetVerificationLinks []string
	failSends              bool
}

func (n *fakeNotifier) SendVerificationCode(email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failSends {
		return fmt.Errorf("smtp down")
	}
	n.verificationCodes = append(n.verificationCodes, code)
	return nil
}

func (n *fakeNotifier) SendResetLoginAttemptsLink(email, name, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failSends {
		return fmt.Errorf("smtp down")
	}
	n.resetLoginLinks = append(n.resetLoginLinks, link)
	return nil
}

func (n *fakeNotifier) SendResetVerificationAttemptsLink(email, name, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failSends {
		return fmt.Errorf("smtp down")
	}
	n.resetVerificationLinks = append(n.resetVerificationLinks, link)
	return nil
}

// fakeHasher keeps tests fast; the real argon2 hasher has its own tests.
type fakeHasher struct{}

func (fakeHasher) HashPassword(p string) (string, error) {
	return "hashed:" + p, nil
}

func (fakeHasher) VerifyPassword(p, hash string) (bool, error) {
	return hash == "hashed:"+p, nil
}

type fakeEmailChecker struct {
	result *EmailCheckResult
	err    error
}

func (c *fakeEmailChecker) CheckEmail(ctx context.Context, email string) (*EmailCheckResult, error) {
	return c.result, c.err
}

func newTestAuth(t *testing.T) (*Auth, *store.MemoryStore, *fakeClock, *fakeNotifier) {
	t.Helper()

	st := store.NewMemoryStore()
	clock := newFakeClock()
	notifier := &fakeNotifier{}

	auth := NewAuth(st, notifier, fakeHasher{}, clock, DefaultConfig())

	return auth, st, clock, notifier
}

func signupUser(t *testing.T, auth *Auth, email string) uint {
	t.Helper()

	id, err := auth.Signup(context.Background(), SignupInput{
		Email:    email,
		Password: "hunter22",
		Name:     "Test User",
		Birthday: time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	return id
}

func storedPIN(t *testing.T, st *store.MemoryStore, email string) string {
	t.Helper()

	u, err := st.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, u.EmailVerificationCode)

	return *u.EmailVerificationCode
}

func TestSignupAndVerifyEmail(t *testing.T) {
	auth, st, clock, notifier := newTestAuth(t)
	ctx := context.Background()

	id := signupUser(t, auth, "alice@example.com")
	require.NotZero(t, id)

	u, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, u.Verified())
	require.NotNil(t, u.EmailVerificationCode)
	assert.Len(t, *u.EmailVerificationCode, 4)
	require.NotNil(t, u.VerificationCodeExpiresAt)
	assert.Equal(t, clock.Now().Add(VerificationCodeTTL), *u.VerificationCodeExpiresAt)

	require.Len(t, notifier.verificationCodes, 1)
	assert.Equal(t, *u.EmailVerificationCode, notifier.verificationCodes[0])

	err = auth.VerifyEmail(ctx, "alice@example.com", notifier.verificationCodes[0])
	require.NoError(t, err)

	u, err = st.FindByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, u.Verified())
	assert.Nil(t, u.EmailVerificationCode)
	assert.Nil(t, u.VerificationCodeExpiresAt)
	assert.Zero(t, u.VerificationAttempts)
}

func TestSignupDuplicateEmail(t *testing.T) {
	auth, _, _, _ := newTestAuth(t)

	signupUser(t, auth, "alice@example.com")

	_, err := auth.Signup(context.Background(), SignupInput{
		Email:    "alice@example.com",
		Password: "other",
		Name:     "Imposter",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignupNotifierFailureStillCreatesUser(t *testing.T) {
	auth, st, _, notifier := newTestAuth(t)
	notifier.failSends = true

	id := signupUser(t, auth, "alice@example.com")

	_, err := st.FindByID(context.Background(), id)
	assert.NoError(t, err)
}

func TestSignupUndeliverableEmail(t *testing.T) {
	st := store.NewMemoryStore()
	cfg := DefaultConfig()
	cfg.VerifyEmailDeliverability = true

	auth := NewAuth(st, &fakeNotifier{}, fakeHasher{}, newFakeClock(), cfg).
		WithEmailChecker(&fakeEmailChecker{result: &EmailCheckResult{
			Deliverable: false,
			ValidFormat: true,
		}})

	_, err := auth.Signup(context.Background(), SignupInput{
		Email:    "nobody@invalid.test",
		Password: "hunter22",
		Name:     "Nobody",
	})
	assert.ErrorIs(t, err, ErrUndeliverableEmail)
}

func TestVerifyEmailUnknownUser(t *testing.T) {
	auth, _, _, _ := newTestAuth(t)

	err := auth.VerifyEmail(context.Background(), "ghost@example.com", "0000")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerifyEmailExpiredCodeDeletesUser(t *testing.T) {
	auth, st, clock, _ := newTestAuth(t)
	ctx := context.Background()

	signupUser(t, auth, "alice@example.com")
	pin := storedPIN(t, st, "alice@example.com")

	clock.Advance(VerificationCodeTTL + time.Second)

	err := auth.VerifyEmail(ctx, "alice@example.com", pin)
	assert.ErrorIs(t, err, ErrCodeExpired)

	_, err = st.FindByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVerifyEmailWrongCodeCountsDown(t *testing.T) {
	auth, st, _, notifier := newTestAuth(t)
	ctx := context.Background()

	id := signupUser(t, auth, "alice@example.com")
	pin := storedPIN(t, st, "alice@example.com")

	wrong := "9999"
	if wrong == pin {
		wrong = "9998"
	}

	for i := 1; i <= 3; i++ {
		err := auth.VerifyEmail(ctx, "alice@example.com", wrong)

		var attempts *AttemptsError
		require.ErrorAs(t, err, &attempts)
		assert.ErrorIs(t, attempts.Err, ErrInvalidCode)
		assert.Equal(t, 3-i, attempts.AttemptsLeft)
	}

	// Reset email fires exactly once, on the blocking failure.
	assert.Len(t, notifier.resetVerificationLinks, 1)

	before, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, before.LastVerificationAttemptAt)

	// Blocked now, even with the right code.
	err = auth.VerifyEmail(ctx, "alice@example.com", pin)
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Len(t, notifier.resetVerificationLinks, 1)

	// A blocked attempt doesn't count against the limiter.
	after, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, after.VerificationAttempts)
	assert.Equal(t, *before.LastVerificationAttemptAt, *after.LastVerificationAttemptAt)
}

func TestVerifyEmailExpiredCodeDeletesUserWhileBlocked(t *testing.T) {
	auth, st, clock, _ := newTestAuth(t)
	ctx := context.Background()

	signupUser(t, auth, "alice@example.com")
	pin := storedPIN(t, st, "alice@example.com")

	wrong := "9999"
	if wrong == pin {
		wrong = "9998"
	}
	for i := 0; i < 3; i++ {
		_ = auth.VerifyEmail(ctx, "alice@example.com", wrong)
	}

	// Past the code's 3-minute lifetime but still inside the 15-minute
	// block window. Expiry wins: the account is deleted, not shielded.
	clock.Advance(5 * time.Minute)

	err := auth.VerifyEmail(ctx, "alice@example.com", pin)
	assert.ErrorIs(t, err, ErrCodeExpired)

	_, err = st.FindByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVerifyEmailBlockLifts(t *testing.T) {
	auth, st, clock, _ := newTestAuth(t)
	ctx := context.Background()

	signupUser(t, auth, "alice@example.com")
	pin := storedPIN(t, st, "alice@example.com")

	wrong := "9999"
	if wrong == pin {
		wrong = "9998"
	}

	for i := 0; i < 3; i++ {
		_ = auth.VerifyEmail(ctx, "alice@example.com", wrong)
	}
	// The code is still live here, so the block is what answers.
	require.ErrorIs(t, auth.VerifyEmail(ctx, "alice@example.com", pin), ErrBlocked)

	// Waiting out the 15-minute block leaves a long-dead 3-minute code.
	clock.Advance(16 * time.Minute)

	err := auth.VerifyEmail(ctx, "alice@example.com", pin)
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestLoginIssuesToken(t *testing.T) {
	auth, st, clock, notifier := newTestAuth(t)
	ctx := context.Background()

	signupUser(t, auth, "alice@example.com")
	require.NoError(t, auth.VerifyEmail(ctx, "alice@example.com", notifier.verificationCodes[0]))

	result, err := auth.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Len(t, result.Token, 60)
	assert.Equal(t, clock.Now().Add(24*time.Hour), result.ExpiresAt)

	u, err := st.FindByToken(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
}

func TestLoginUnknownEmail(t *testing.T) {
	auth, _, _, _ := newTestAuth(t)

	_, err := auth.Login(context.Background(), "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown account and wrong password must be indistinguishable in
	// kind, but an unknown account never carries an attempt count.
	var attempts *AttemptsError
	assert.False(t, errors.As(err, &attempts))
}

func TestLoginWrongPasswordBlocksAfterMax(t *testing.T) {
	auth, st, _, notifier := newTestAuth(t)
	ctx := context.Background()

	id := signupUser(t, auth, "alice@example.com")

	for i := 1; i <= 3; i++ {
		_, err := auth.Login(ctx, "alice@example.com", "wrong")

		var attempts *AttemptsError
		require.ErrorAs(t, err, &attempts)
		assert.ErrorIs(t, attempts.Err, ErrInvalidCredentials)
		assert.Equal(t, 3-i, attempts.AttemptsLeft)
	}

	assert.Len(t, notifier.resetLoginLinks, 1)

	before, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, before.LastLoginAttemptAt)

	// Correct password no longer helps.
	_, err = auth.Login(ctx, "alice@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Len(t, notifier.resetLoginLinks, 1)

	// Attempts inside the block window don't bump the counter or the
	// last-attempt stamp.
	_, err = auth.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBlocked)

	after, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, after.LoginAttempts)
	assert.Equal(t, *before.LastLoginAttemptAt, *after.LastLoginAttemptAt)
}

func TestLoginBlockLiftsAfterWindow(t *testing.T) {
	auth, _, clock, _ := newTestAuth(t)
	ctx := context.Background()

	signupUser(t, auth, "alice@example.com")

	for i := 0; i < 3; i++ {
		_, _ = auth.Login(ctx, "alice@example.com", "wrong")
	}
	_, err := auth.Login(ctx, "alice@example.com", "hunter22")
	require.ErrorIs(t, err, ErrBlocked)

	clock.Advance(16 * time.Minute)

	result, err := auth.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	auth, st, _, _ := newTestAuth(t)
	ctx := context.Background()

	id := signupUser(t, auth, "alice@example.com")

	_, _ = auth.Login(ctx, "alice@example.com", "wrong")
	_, _ = auth.Login(ctx, "alice@example.com", "wrong")

	_, err := auth.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	u, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, u.LoginAttempts)
	assert.Nil(t, u.LastLoginAttemptAt)
}

func TestLoginOverwritesPreviousSession(t *testing.T) {
	auth, _, _, _ := newTestAuth(t)
	ctx := context.Background()

	signupUser(t, auth, "alice@example.com")

	first, err := auth.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	second, err := auth.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	_, err = auth.ValidateToken(ctx, first.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = auth.ValidateToken(ctx, second.Token)
	assert.NoError(t, err)
}

func TestLogout(t *testing.T) {
	auth, _, _, _ := newTestAuth(t)
	ctx := context.Background()

	signupUser(t, auth, "alice@example.com")
	result, err := auth.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, result.Token))

	_, err = auth.ValidateToken(ctx, result.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.ErrorIs(t, auth.Logout(ctx, result.Token), ErrInvalidToken)
	assert.ErrorIs(t, auth.Logout(ctx, ""), ErrNoToken)
}

func TestValidateTokenRefreshesLastUsed(t *testing.T) {
	auth, st, clock, _ := newTestAuth(t)
	ctx := context.Background()

	id := signupUser(t, auth, "alice@example.com")
	result, err := auth.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	u, err := auth.ValidateToken(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	stored, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.TokenLastUsedAt)
	assert.Equal(t, clock.Now(), *stored.TokenLastUsedAt)
}

func TestValidateTokenLazyExpiry(t *testing.T) {
	auth, st, clock, _ := newTestAuth(t)
	ctx := context.Background()

	id := signupUser(t, auth, "alice@example.com")
	result, err := auth.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	clock.Advance(25 * time.Hour)

	_, err = auth.ValidateToken(ctx, result.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// The session is gone, so the same token is now simply unknown.
	_, err = auth.ValidateToken(ctx, result.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	u, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, u.Token)
	assert.Nil(t, u.TokenExpiresAt)
}

func TestResetLoginAttempts(t *testing.T) {
	auth, st, _, _ := newTestAuth(t)
	ctx := context.Background()

	id := signupUser(t, auth, "alice@example.com")

	for i := 0; i < 3; i++ {
		_, _ = auth.Login(ctx, "alice@example.com", "wrong")
	}
	_, err := auth.Login(ctx, "alice@example.com", "hunter22")
	require.ErrorIs(t, err, ErrBlocked)

	u, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, u.ResetAttemptsToken)
	token := *u.ResetAttemptsToken
	assert.Len(t, token, 40)

	require.NoError(t, auth.ResetLoginAttempts(ctx, "alice@example.com", token))

	result, err := auth.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	// One-time use.
	err = auth.ResetLoginAttempts(ctx, "alice@example.com", token)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestResetLoginAttemptsExpiredToken(t *testing.T) {
	auth, st, clock, _ := newTestAuth(t)
	ctx := context.Background()

	id := signupUser(t, auth, "alice@example.com")

	for i := 0; i < 3; i++ {
		_, _ = auth.Login(ctx, "alice@example.com", "wrong")
	}

	u, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, u.ResetAttemptsToken)

	clock.Advance(ResetTokenTTL + time.Minute)

	err = auth.ResetLoginAttempts(ctx, "alice@example.com", *u.ResetAttemptsToken)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestResetLoginAttemptsBadToken(t *testing.T) {
	auth, _, _, _ := newTestAuth(t)
	ctx := context.Background()

	signupUser(t, auth, "alice@example.com")

	err := auth.ResetLoginAttempts(ctx, "alice@example.com", strings.Repeat("x", 40))
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestResetVerificationAttempts(t *testing.T) {
	auth, st, _, notifier := newTestAuth(t)
	ctx := context.Background()

	id := signupUser(t, auth, "alice@example.com")
	pin := storedPIN(t, st, "alice@example.com")

	wrong := "9999"
	if wrong == pin {
		wrong = "9998"
	}
	for i := 0; i < 3; i++ {
		_ = auth.VerifyEmail(ctx, "alice@example.com", wrong)
	}
	require.ErrorIs(t, auth.VerifyEmail(ctx, "alice@example.com", pin), ErrBlocked)
	require.Len(t, notifier.resetVerificationLinks, 1)

	u, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, u.ResetVerificationAttemptsToken)

	require.NoError(t, auth.ResetVerificationAttempts(ctx, "alice@example.com", *u.ResetVerificationAttemptsToken))

	// No longer blocked, code still valid.
	require.NoError(t, auth.VerifyEmail(ctx, "alice@example.com", pin))
}

func TestCleanupExpiredSessions(t *testing.T) {
	auth, st, clock, _ := newTestAuth(t)
	ctx := context.Background()

	aliceID := signupUser(t, auth, "alice@example.com")
	_, err := auth.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	clock.Advance(25 * time.Hour)

	bobID := signupUser(t, auth, "bob@example.com")
	_, err = auth.Login(ctx, "bob@example.com", "hunter22")
	require.NoError(t, err)

	cleared, err := auth.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	alice, err := st.FindByID(ctx, aliceID)
	require.NoError(t, err)
	assert.Nil(t, alice.Token)

	bob, err := st.FindByID(ctx, bobID)
	require.NoError(t, err)
	assert.NotNil(t, bob.Token)

	// Idempotent.
	cleared, err = auth.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, cleared)
}

func TestUpdateUser(t *testing.T) {
	auth, st, _, _ := newTestAuth(t)
	ctx := context.Background()

	id := signupUser(t, auth, "alice@example.com")

	name := "Alice Cooper"
	password := "newsecret"
	err := auth.UpdateUser(ctx, id, UpdateUserInput{Name: &name, Password: &password})
	require.NoError(t, err)

	u, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", u.Name)

	_, err = auth.Login(ctx, "alice@example.com", "newsecret")
	assert.NoError(t, err)

	err = auth.UpdateUser(ctx, 9999, UpdateUserInput{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
