package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"skillswipe/internal/api/middleware"
	"skillswipe/internal/errcode"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// ErrorWithCode 返回带业务错误码的错误体。
func ErrorWithCode(c *gin.Context, status, code int, msg string) {
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func Unauthorized(c *gin.Context)           { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func Forbidden(c *gin.Context, msg string)  { Error(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)   { Error(c, http.StatusConflict, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }

// statusFor 将业务错误类别映射为 HTTP 状态码。
func statusFor(kind errcode.Kind) int {
	switch kind {
	case errcode.KindValidation:
		return http.StatusBadRequest
	case errcode.KindConflict:
		return http.StatusConflict
	case errcode.KindNotFound:
		return http.StatusNotFound
	case errcode.KindPermission:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError 输出服务层错误。业务错误原样返回消息，其他错误只记录日志。
func respondError(c *gin.Context, err error) {
	var e *errcode.Error
	if errors.As(err, &e) {
		ErrorWithCode(c, statusFor(e.Kind), e.Kind.Code(), e.Message)
		return
	}
	middleware.LoggerFromContext(c).Error("request failed", slog.Any("error", err))
	ErrorWithCode(c, http.StatusInternalServerError, errcode.SystemError, "internal error")
}
