package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SessionCleanup periodically clears session fields of users whose token
// expired. Lazy per-request expiry already keeps validation correct; the
// sweep just stops stale tokens from lingering in the table.
func SessionCleanup(t time.Duration, auth *Auth) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Session cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			cleared, err := auth.CleanupExpiredSessions(context.Background())
			if err != nil {
				zap.L().Error("Failed to clean up expired sessions", zap.Error(err))
				continue
			}

			if cleared > 0 {
				zap.L().Debug("Session cleanup finished", zap.Int("cleared", cleared))
			}
		}
	}()
}
