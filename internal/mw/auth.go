package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireToken guards admin endpoints with a static bearer token.
// Missing token is 401, wrong token is 403.
func RequireToken(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if adminToken == "" || token != adminToken {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid token"})
			return
		}

		c.Next()
	}
}
