package api

import (
	"net/http"

	"verigate/auth-api/validators"

	"github.com/gin-gonic/gin"
)

// AuthEmailExistence runs the third-party deliverability probe for a
// single address. Responses are cached briefly upstream to spare the
// external API quota.
func (a *API) AuthEmailExistence(c *gin.Context) {
	email := c.Param("email")

	if err := validators.EmailValidator(email); err != nil {
		failValidation(c, map[string]string{"email": err.Error()})
		return
	}

	checker := a.Auth.EmailChecker()
	if checker == nil {
		fail(c, http.StatusServiceUnavailable, "Email deliverability verification is not configured")
		return
	}

	result, err := checker.CheckEmail(c.Request.Context(), email)
	if err != nil {
		internalError(c, err, "Failed to check email existence")
		return
	}

	if !result.Strict() {
		fail(c, http.StatusBadRequest, "Email address is not deliverable", gin.H{
			"data": result,
		})
		return
	}

	success(c, http.StatusOK, gin.H{
		"data": result,
	})
}
