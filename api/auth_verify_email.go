package api

import (
	"errors"
	"net/http"

	"verigate/auth-api/service"
	"verigate/auth-api/validators"

	"github.com/gin-gonic/gin"
)

type verifyEmailBody struct {
	Email            string `json:"email"`
	VerificationCode string `json:"verification_code"`
}

func (a *API) AuthVerifyEmail(c *gin.Context) {
	var data verifyEmailBody
	if err := c.ShouldBind(&data); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	errs := map[string]string{}

	if err := validators.EmailValidator(data.Email); err != nil {
		errs["email"] = err.Error()
	}
	if len(data.VerificationCode) != 4 {
		errs["verification_code"] = "verification code must be 4 digits"
	}

	if len(errs) > 0 {
		failValidation(c, errs)
		return
	}

	err := a.Auth.VerifyEmail(c.Request.Context(), data.Email, data.VerificationCode)
	if err != nil {
		var attempts *service.AttemptsError

		switch {
		case errors.Is(err, service.ErrUserNotFound):
			fail(c, http.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrBlocked):
			fail(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrCodeExpired):
			fail(c, http.StatusBadRequest, err.Error())
		case errors.As(err, &attempts):
			fail(c, http.StatusBadRequest, attempts.Err.Error(), gin.H{
				"attempts_left": attempts.AttemptsLeft,
			})
		default:
			internalError(c, err, "Failed to verify email")
		}
		return
	}

	success(c, http.StatusOK, gin.H{
		"message": "Email verified successfully",
	})
}
