package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthGoogleStub answers the social-login routes. OAuth is deliberately
// not implemented; the routes exist so clients get a stable answer
// instead of a 404.
func (a *API) AuthGoogleStub(c *gin.Context) {
	fail(c, http.StatusNotImplemented, "Social login is not available")
}
