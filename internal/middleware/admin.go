package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin must run after RequireAuth. It rejects tokens whose role is
// not admin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "Admin role required for this endpoint",
			})
			return
		}
		c.Next()
	}
}

// AdminChain returns the handlers guarding admin routes.
func (am *AuthMiddleware) AdminChain() []gin.HandlerFunc {
	return []gin.HandlerFunc{am.RequireAuth(), RequireAdmin()}
}
