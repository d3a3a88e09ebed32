package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"skillswipe/internal/errcode"
)

// InternalSecretHeader 携带内部接口密钥（/metrics 抓取等）。
const InternalSecretHeader = "X-Internal-Secret"

// InternalSecretMiddleware 仅放行携带正确密钥的内部调用。未配置密钥时一律拒绝。
func InternalSecretMiddleware(secret string) gin.HandlerFunc {
	expected := []byte(strings.TrimSpace(secret))
	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "internal api secret is not configured",
				"code":  errcode.SystemError,
			})
			return
		}
		// 只认 Header，query 参数会进入访问日志。
		given := []byte(strings.TrimSpace(c.GetHeader(InternalSecretHeader)))
		if subtle.ConstantTimeCompare(given, expected) != 1 {
			LoggerFromContextOr(c, nil).Warn("internal endpoint rejected", "path", c.FullPath(), "client_ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": errcode.PermissionDenied})
			return
		}
		c.Next()
	}
}
