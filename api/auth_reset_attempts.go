package api

import (
	"context"
	"errors"
	"net/http"

	"verigate/auth-api/service"
	"verigate/auth-api/validators"

	"github.com/gin-gonic/gin"
)

// Both reset endpoints are hit from links in emails, so parameters
// arrive as query strings.

func (a *API) AuthResetLoginAttempts(c *gin.Context) {
	a.resetAttempts(c, a.Auth.ResetLoginAttempts, "Login attempts reset successfully")
}

func (a *API) AuthResetVerificationAttempts(c *gin.Context) {
	a.resetAttempts(c, a.Auth.ResetVerificationAttempts, "Verification attempts reset successfully")
}

func (a *API) resetAttempts(c *gin.Context, reset func(ctx context.Context, email, token string) error, okMessage string) {
	email := c.Query("email")
	resetToken := c.Query("reset_token")

	errs := map[string]string{}

	if err := validators.EmailValidator(email); err != nil {
		errs["email"] = err.Error()
	}
	if resetToken == "" {
		errs["reset_token"] = "no reset token provided"
	}

	if len(errs) > 0 {
		failValidation(c, errs)
		return
	}

	if err := reset(c.Request.Context(), email, resetToken); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrExpiredToken):
			fail(c, http.StatusBadRequest, err.Error())
		default:
			internalError(c, err, "Failed to reset attempts")
		}
		return
	}

	success(c, http.StatusOK, gin.H{
		"message": okMessage,
	})
}
