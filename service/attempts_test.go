package service

import (
	"context"
	"testing"
	"time"

	"verigate/auth-api/model"
	"verigate/auth-api/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, kind store.AttemptKind) (*AttemptLimiter, *store.MemoryStore, *fakeClock, uint) {
	t.Helper()

	st := store.NewMemoryStore()
	clock := newFakeClock()

	u := &model.User{Email: "alice@example.com"}
	require.NoError(t, st.Create(context.Background(), u))

	return NewAttemptLimiter(st, clock, kind, 3, 15*time.Minute), st, clock, u.ID
}

func TestRecordFailureCounts(t *testing.T) {
	limiter, st, clock, id := newTestLimiter(t, store.LoginAttempts)
	ctx := context.Background()

	for want := 1; want <= 4; want++ {
		count, err := limiter.RecordFailure(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}

	u, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4, u.LoginAttempts)
	require.NotNil(t, u.LastLoginAttemptAt)
	assert.Equal(t, clock.Now(), *u.LastLoginAttemptAt)
}

func TestIsBlockedBelowMax(t *testing.T) {
	limiter, st, _, id := newTestLimiter(t, store.LoginAttempts)
	ctx := context.Background()

	_, err := limiter.RecordFailure(ctx, id)
	require.NoError(t, err)
	_, err = limiter.RecordFailure(ctx, id)
	require.NoError(t, err)

	u, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, limiter.IsBlocked(u))
}

func TestIsBlockedAtMax(t *testing.T) {
	limiter, st, _, id := newTestLimiter(t, store.LoginAttempts)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.RecordFailure(ctx, id)
		require.NoError(t, err)
	}

	u, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, limiter.IsBlocked(u))
}

func TestBlockWindowElapsesWithoutResettingCounter(t *testing.T) {
	limiter, st, clock, id := newTestLimiter(t, store.LoginAttempts)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.RecordFailure(ctx, id)
		require.NoError(t, err)
	}

	clock.Advance(15*time.Minute + time.Second)

	u, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, limiter.IsBlocked(u))
	assert.Equal(t, 3, u.LoginAttempts)

	// One more failure re-arms the block immediately.
	_, err = limiter.RecordFailure(ctx, id)
	require.NoError(t, err)

	u, err = st.FindByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, limiter.IsBlocked(u))
}

func TestResetClearsState(t *testing.T) {
	limiter, st, _, id := newTestLimiter(t, store.VerificationAttempts)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.RecordFailure(ctx, id)
		require.NoError(t, err)
	}

	require.NoError(t, limiter.Reset(ctx, id))

	u, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, u.VerificationAttempts)
	assert.Nil(t, u.LastVerificationAttemptAt)
	assert.False(t, limiter.IsBlocked(u))
}

func TestVerificationKindUsesOwnColumns(t *testing.T) {
	limiter, st, _, id := newTestLimiter(t, store.VerificationAttempts)
	ctx := context.Background()

	_, err := limiter.RecordFailure(ctx, id)
	require.NoError(t, err)

	u, err := st.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, u.VerificationAttempts)
	assert.Zero(t, u.LoginAttempts)
	assert.Nil(t, u.LastLoginAttemptAt)
}

func TestAttemptsLeftClampsAtZero(t *testing.T) {
	limiter, _, _, _ := newTestLimiter(t, store.LoginAttempts)

	assert.Equal(t, 2, limiter.AttemptsLeft(1))
	assert.Equal(t, 0, limiter.AttemptsLeft(3))
	assert.Equal(t, 0, limiter.AttemptsLeft(5))
}
