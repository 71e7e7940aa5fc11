package api

import (
	"errors"
	"net/http"

	"verigate/auth-api/service"
	"verigate/auth-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type signupBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Birthday string `json:"birthday"`
}

func (a *API) AuthSignup(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data signupBody
	if err := c.ShouldBind(&data); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	errs := map[string]string{}

	if err := validators.EmailValidator(data.Email); err != nil {
		errs["email"] = err.Error()
	}
	if err := validators.PasswordValidator(data.Password); err != nil {
		errs["password"] = err.Error()
	}
	if err := validators.NameValidator(data.Name); err != nil {
		errs["name"] = err.Error()
	}

	birthday, err := validators.BirthdayValidator(data.Birthday)
	if err != nil {
		errs["birthday"] = err.Error()
	}

	if len(errs) > 0 {
		failValidation(c, errs)
		return
	}

	userID, err := a.Auth.Signup(c.Request.Context(), service.SignupInput{
		Email:    data.Email,
		Password: data.Password,
		Name:     data.Name,
		Birthday: birthday,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			failValidation(c, map[string]string{"email": err.Error()})
		case errors.Is(err, service.ErrUndeliverableEmail):
			fail(c, http.StatusBadRequest, err.Error())
		default:
			internalError(c, err, "Failed to sign up user")
		}
		return
	}

	success(c, http.StatusCreated, gin.H{
		"message": "User registered. Check your email for verification code.",
		"user_id": userID,
	})
}
