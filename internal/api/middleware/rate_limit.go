package middleware

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
)

func rateLimitKey(c *gin.Context) string {
	if value, ok := c.Get(ContextUserID); ok {
		if id, ok := value.(string); ok && id != "" {
			return "user:" + id
		}
	}
	return "ip:" + c.ClientIP()
}

func rateLimitExceeded(c *gin.Context, info ratelimit.Info) {
	c.Header("Retry-After", info.ResetTime.UTC().Format(http.TimeFormat))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": "too many requests, please try again later",
	})
}

// UserRateLimiter 按用户限流，必须挂在 AuthMiddleware 之后；未认证请求按 IP 计数。
func UserRateLimiter(limit uint, window time.Duration) gin.HandlerFunc {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  window,
		Limit: limit,
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		KeyFunc:      rateLimitKey,
		ErrorHandler: rateLimitExceeded,
	})
}
