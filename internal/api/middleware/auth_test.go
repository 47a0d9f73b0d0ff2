package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CloudSihmar/ansible-platform/internal/auth"
	"github.com/CloudSihmar/ansible-platform/internal/config"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func testJWTConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:     "test-secret-key-for-testing",
			Expiration: 24 * time.Hour,
			Issuer:     "test-issuer",
		},
	}
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testJWTConfig()

	t.Run("Valid token allows access", func(t *testing.T) {
		router := setupTestRouter()
		router.Use(AuthMiddleware(cfg))
		router.GET("/protected", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"user_id":  c.GetString("user_id"),
				"username": c.GetString("username"),
				"role":     c.GetString("role"),
			})
		})

		token, err := auth.GenerateToken("user123", "testuser", "admin", cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
		require.NoError(t, err)

		req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "user123")
		assert.Contains(t, w.Body.String(), "testuser")
		assert.Contains(t, w.Body.String(), "admin")
	})

	t.Run("Missing Authorization header returns 401", func(t *testing.T) {
		router := setupTestRouter()
		router.Use(AuthMiddleware(cfg))
		router.GET("/protected", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})

		req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Not authenticated")
	})

	t.Run("Invalid Authorization header format returns 401", func(t *testing.T) {
		router := setupTestRouter()
		router.Use(AuthMiddleware(cfg))
		router.GET("/protected", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})

		req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid authorization header format")
	})

	t.Run("Invalid token returns 401", func(t *testing.T) {
		router := setupTestRouter()
		router.Use(AuthMiddleware(cfg))
		router.GET("/protected", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})

		req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-real-token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Could not validate credentials")
	})

	t.Run("Token signed with wrong secret returns 401", func(t *testing.T) {
		router := setupTestRouter()
		router.Use(AuthMiddleware(cfg))
		router.GET("/protected", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})

		token, err := auth.GenerateToken("user123", "testuser", "admin", "other-secret", cfg.JWT.Issuer, cfg.JWT.Expiration)
		require.NoError(t, err)

		req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequirePermission(t *testing.T) {
	cfg := testJWTConfig()

	protectedRouter := func(role, permission string) (*gin.Engine, string) {
		router := setupTestRouter()
		router.Use(AuthMiddleware(cfg))
		router.GET("/resource", RequirePermission(permission), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})

		token, _ := auth.GenerateToken("user123", "testuser", role, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
		return router, token
	}

	tests := []struct {
		name       string
		role       string
		permission string
		want       int
	}{
		{"Admin can create users", "admin", "users:create", http.StatusOK},
		{"Viewer cannot create users", "viewer", "users:create", http.StatusForbidden},
		{"Viewer can read playbooks", "viewer", "playbooks:read", http.StatusOK},
		{"Viewer cannot execute playbooks", "viewer", "playbooks:execute", http.StatusForbidden},
		{"Operator can execute playbooks", "ansible_operator", "playbooks:execute", http.StatusOK},
		{"Kubernetes admin can register clusters", "kubernetes_admin", "kubernetes:cluster:register", http.StatusOK},
		{"Operator cannot register clusters", "ansible_operator", "kubernetes:cluster:register", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, token := protectedRouter(tt.role, tt.permission)

			req, _ := http.NewRequest(http.MethodGet, "/resource", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), "Insufficient permissions")
			}
		})
	}
}
