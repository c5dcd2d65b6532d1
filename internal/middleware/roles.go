package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireRole allows the request through when the authenticated user's
// role is one of the listed roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if s := strings.TrimSpace(role); s != "" {
			allowed[s] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[Role(c)]; ok {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "Forbidden",
			"message": "insufficient role",
		})
	}
}
