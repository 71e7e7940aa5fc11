package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Responses follow the envelope the frontend already speaks:
// {status: "success"|"error", data|message|errors, requestID}.

func success(c *gin.Context, code int, fields gin.H) {
	body := gin.H{
		"status":    "success",
		"requestID": c.MustGet("requestID").(string),
	}
	for k, v := range fields {
		body[k] = v
	}

	c.JSON(code, body)
}

func fail(c *gin.Context, code int, message string, fields ...gin.H) {
	body := gin.H{
		"status":    "error",
		"message":   message,
		"requestID": c.MustGet("requestID").(string),
	}
	for _, extra := range fields {
		for k, v := range extra {
			body[k] = v
		}
	}

	c.JSON(code, body)
}

func failValidation(c *gin.Context, errs map[string]string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":    "error",
		"errors":    errs,
		"requestID": c.MustGet("requestID").(string),
	})
}

func internalError(c *gin.Context, err error, during string) {
	requestID := c.MustGet("requestID").(string)

	c.JSON(http.StatusInternalServerError, gin.H{
		"status":    "error",
		"message":   "Internal server error",
		"requestID": requestID,
	})

	zap.L().Error(during, zap.Error(err), zap.String("requestID", requestID))
}
