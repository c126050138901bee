package middleware

import (
	"net/http"

	apperrors "storefront-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler turns the last error attached by a handler into a StandardError response
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		stdErr := apperrors.FromDomain(err)
		status := stdErr.HTTPStatus()

		fields := []zap.Field{
			zap.String("error_code", stdErr.Code),
			zap.String("message", stdErr.Message),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("request_id", GetRequestID(c)),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("Request failed", append(fields, zap.Error(err))...)
		} else {
			logger.Warn("Request error", fields...)
		}

		c.JSON(status, stdErr)
	}
}

// RecoveryHandler is a panic recovery middleware
func RecoveryHandler(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, apperrors.NewInternalError("internal server error"))
	})
}
