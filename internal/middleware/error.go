package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/dobashik/cashflow-maker-web/internal/errors"
	"github.com/dobashik/cashflow-maker-web/internal/logger"
)

// ErrorHandler converts the last error set on the Gin context into the
// {"error":{"code","message"}} envelope. Binding errors become
// INVALID_INPUT, expired request contexts REQUEST_TIMEOUT, and anything
// else that is not an AppError a generic INTERNAL_ERROR.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// A handler that already wrote a response owns it.
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		last := c.Errors.Last()
		var appErr *apperrors.AppError
		if last.IsType(gin.ErrorTypeBind) {
			appErr = apperrors.WithMessage(apperrors.ErrInvalidInput, last.Error())
		} else {
			appErr = apperrors.Classify(last.Err)
		}

		fields := []interface{}{
			"code", appErr.Code,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(requestIDKey),
		}
		if appErr.Internal != nil {
			fields = append(fields, "internal", appErr.Internal.Error())
		}
		if appErr.StatusCode >= 500 {
			logger.Get().Errorw("request failed", fields...)
		} else {
			logger.Get().Warnw("request rejected", fields...)
		}

		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
	}
}
