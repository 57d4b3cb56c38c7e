package middleware

import (
	"errors"
	"net/http"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler 统一把 c.Errors 中的最后一个错误转换为响应，并兜住 panic
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Error("Panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				c.Abort()
				util.Error(c, http.StatusInternalServerError, "Internal Server Error")
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, message := StatusFor(err)
		if status == http.StatusInternalServerError {
			logger.Log.Error("Request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		}

		var details []string
		var ve *util.ValidationError
		if errors.As(err, &ve) && ve.Field != "" {
			details = append(details, ve.Field)
		}
		util.Error(c, status, message, details...)
	}
}

// StatusFor 错误到 HTTP 状态码的映射，500 不向客户端暴露原始错误
func StatusFor(err error) (int, string) {
	switch {
	case util.IsNotFound(err):
		return http.StatusNotFound, err.Error()
	case util.IsValidation(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, util.ErrUnknownTenant):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, util.ErrUnauthorized), errors.Is(err, util.ErrInvalidCredential):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, util.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, util.ErrTooManyAttempts):
		return http.StatusTooManyRequests, err.Error()
	}
	return http.StatusInternalServerError, "Internal Server Error"
}
