package api

import (
	"errors"
	"net/http"

	"verigate/auth-api/service"
	"verigate/auth-api/validators"

	"github.com/gin-gonic/gin"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) AuthLogin(c *gin.Context) {
	var data loginBody
	if err := c.ShouldBind(&data); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	errs := map[string]string{}

	if err := validators.EmailValidator(data.Email); err != nil {
		errs["email"] = err.Error()
	}
	if data.Password == "" {
		errs["password"] = "no password provided"
	}

	if len(errs) > 0 {
		failValidation(c, errs)
		return
	}

	result, err := a.Auth.Login(c.Request.Context(), data.Email, data.Password)
	if err != nil {
		var attempts *service.AttemptsError

		switch {
		case errors.Is(err, service.ErrBlocked):
			fail(c, http.StatusForbidden, "Too many login attempts. Please reset your attempts.")
		case errors.As(err, &attempts):
			fail(c, http.StatusUnauthorized, attempts.Err.Error(), gin.H{
				"attempts_left": attempts.AttemptsLeft,
			})
		case errors.Is(err, service.ErrInvalidCredentials):
			// Same message whether the account exists or not.
			fail(c, http.StatusUnauthorized, err.Error())
		default:
			internalError(c, err, "Failed to log in user")
		}
		return
	}

	success(c, http.StatusOK, gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
	})
}
