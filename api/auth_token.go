package api

import (
	"errors"
	"net/http"

	"verigate/auth-api/middleware"
	"verigate/auth-api/service"

	"github.com/gin-gonic/gin"
)

func (a *API) AuthLogout(c *gin.Context) {
	err := a.Auth.Logout(c.Request.Context(), middleware.BearerToken(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoToken), errors.Is(err, service.ErrInvalidToken):
			fail(c, http.StatusUnauthorized, err.Error())
		default:
			internalError(c, err, "Failed to log out user")
		}
		return
	}

	success(c, http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

func (a *API) AuthTokenValidate(c *gin.Context) {
	user, err := a.Auth.ValidateToken(c.Request.Context(), middleware.BearerToken(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoToken),
			errors.Is(err, service.ErrInvalidToken),
			errors.Is(err, service.ErrTokenExpired):
			fail(c, http.StatusUnauthorized, err.Error())
		default:
			internalError(c, err, "Failed to validate token")
		}
		return
	}

	success(c, http.StatusOK, gin.H{
		"message":    "Token is valid",
		"expires_at": user.TokenExpiresAt,
	})
}
