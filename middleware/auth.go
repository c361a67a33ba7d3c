package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authpkg "github.com/WaelAlfnan/OrderDelivery-sub000/auth"
)

// RequireAuth validates the Bearer JWT, places claims into context and continues.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		tokenString := authHeader[7:]

		claims, err := authpkg.ParseAndValidate(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("roles", claims.Roles)
		c.Next()
	}
}

// RequireRoles ensures the authenticated user holds at least one allowed role.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	roleSet := map[string]struct{}{}
	for _, r := range allowedRoles {
		roleSet[strings.ToLower(r)] = struct{}{}
	}
	return func(c *gin.Context) {
		roles, _ := c.Get("roles")
		held, _ := roles.([]string)
		for _, r := range held {
			if _, ok := roleSet[strings.ToLower(r)]; ok {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: insufficient role"})
	}
}
