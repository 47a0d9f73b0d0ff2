// Package middleware provides HTTP middleware for the API server:
// JWT authentication, permission checks, request logging and CORS.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/CloudSihmar/ansible-platform/internal/auth"
	"github.com/CloudSihmar/ansible-platform/internal/config"
)

// AuthMiddleware validates JWT bearer tokens and sets user context
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(parts[1], cfg.JWT.Secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// RequirePermission checks that the authenticated user's role grants the
// given "resource:action" permission
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"detail": "Not authenticated"})
			c.Abort()
			return
		}

		if !auth.HasPermission(role.(string), permission) {
			c.JSON(http.StatusForbidden, gin.H{"detail": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}
