package middleware

import (
	"errors"
	"net/http"
	"strings"

	"verigate/auth-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BearerToken pulls the opaque token out of the Authorization header.
// Returns "" when the header is absent or not a Bearer scheme.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// NewTokenAuthMiddleware is the token-authentication gate. It validates
// the bearer token through the auth service (which lazily expires stale
// tokens and refreshes last-used) and binds the resolved user to the
// request context for the rest of the request.
func NewTokenAuthMiddleware(auth *service.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		user, err := auth.ValidateToken(c.Request.Context(), BearerToken(c))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNoToken),
				errors.Is(err, service.ErrInvalidToken),
				errors.Is(err, service.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"status":    "error",
					"message":   err.Error(),
					"requestID": requestID,
				})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"status":    "error",
					"message":   "Internal server error",
					"requestID": requestID,
				})

				zap.L().Error("Failed to validate token", zap.Error(err), zap.String("requestID", requestID))
			}
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Next()
	}
}
