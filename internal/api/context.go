package api

import (
	"github.com/gin-gonic/gin"

	"skillswipe/internal/api/middleware"
	"skillswipe/internal/database"
)

func userIDFromContext(c *gin.Context) (string, bool) {
	value, exists := c.Get(middleware.ContextUserID)
	if !exists {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}

func roleFromContext(c *gin.Context) database.Role {
	if value, ok := c.Get(middleware.ContextRole); ok {
		if role, ok := value.(database.Role); ok {
			return role
		}
	}
	return ""
}

// requireUser 取出当前用户 ID，缺失时中止请求。
func requireUser(c *gin.Context) (string, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
	}
	return userID, ok
}
