package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	AppError   *AppError   `json:"appError"`
	Meta       *Meta       `json:"meta"`
}

type AppError struct {
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

// Meta 分页信息
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Data:       data,
		Message:    "success",
		StatusCode: http.StatusOK,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Data:       data,
		Message:    "created",
		StatusCode: http.StatusCreated,
	})
}

func Paged(c *gin.Context, data interface{}, page, limit int, total int64) {
	c.JSON(http.StatusOK, Response{
		Data:       data,
		Message:    "success",
		StatusCode: http.StatusOK,
		Meta:       &Meta{Page: page, Limit: limit, Total: total},
	})
}

func Error(c *gin.Context, code int, message string, details ...string) {
	c.JSON(code, Response{
		Message:    message,
		StatusCode: code,
		AppError: &AppError{
			Code:    http.StatusText(code),
			Details: details,
		},
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}
