// Package api provides HTTP routing and server configuration for the
// Ansible Platform backend. It wires together handlers, middleware, and
// services to create the application's API endpoints.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CloudSihmar/ansible-platform/internal/ansible"
	"github.com/CloudSihmar/ansible-platform/internal/api/handlers"
	"github.com/CloudSihmar/ansible-platform/internal/api/middleware"
	"github.com/CloudSihmar/ansible-platform/internal/config"
	"github.com/CloudSihmar/ansible-platform/internal/database"
	"github.com/CloudSihmar/ansible-platform/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *database.Database, logger *zap.Logger) *gin.Engine {
	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.CORSMiddleware(cfg))

	// Initialize services
	userService := service.NewUserService(db, cfg)

	// Try to load JWT secret from database if it exists
	_ = userService.LoadJWTSecret()

	inventoryService := service.NewInventoryService(db)
	playbookService := service.NewPlaybookService(db)
	credentialService := service.NewCredentialService(db, userService)
	clusterService := service.NewClusterService(db, cfg, userService, logger)
	runner := ansible.NewRunner(cfg, logger)
	executionService := service.NewExecutionService(db, runner, playbookService, inventoryService, credentialService, logger)

	// Initialize handlers
	setupHandler := handlers.NewSetupHandler(userService, logger)
	authHandler := handlers.NewAuthHandler(userService, logger)
	userHandler := handlers.NewUserHandler(userService, logger)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, logger)
	playbookHandler := handlers.NewPlaybookHandler(playbookService, executionService, logger)
	credentialHandler := handlers.NewCredentialHandler(credentialService, logger)
	clusterHandler := handlers.NewClusterHandler(clusterService, logger)
	executionHandler := handlers.NewExecutionHandler(executionService, logger)

	// Public routes
	public := router.Group("/api/v1")
	{
		// Setup routes (no auth required)
		public.GET("/setup/status", setupHandler.GetStatus)
		public.POST("/setup", setupHandler.PerformSetup)

		// Auth routes
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/register", authHandler.Register)
	}

	// Protected routes (require authentication)
	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware(cfg))
	{
		// Auth
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		// User management
		protected.GET("/users", middleware.RequirePermission("users:read"), userHandler.ListUsers)
		protected.POST("/users", middleware.RequirePermission("users:create"), userHandler.CreateUser)
		protected.GET("/users/:id", middleware.RequirePermission("users:read"), userHandler.GetUser)
		protected.PUT("/users/:id", middleware.RequirePermission("users:update"), userHandler.UpdateUser)
		protected.DELETE("/users/:id", middleware.RequirePermission("users:delete"), userHandler.DeleteUser)

		// Inventories
		protected.GET("/inventory", middleware.RequirePermission("inventory:read"), inventoryHandler.ListInventories)
		protected.POST("/inventory", middleware.RequirePermission("inventory:create"), inventoryHandler.CreateInventory)
		protected.POST("/inventory/validate", middleware.RequirePermission("inventory:read"), inventoryHandler.ValidateInventory)
		protected.GET("/inventory/:id", middleware.RequirePermission("inventory:read"), inventoryHandler.GetInventory)
		protected.PUT("/inventory/:id", middleware.RequirePermission("inventory:update"), inventoryHandler.UpdateInventory)
		protected.DELETE("/inventory/:id", middleware.RequirePermission("inventory:delete"), inventoryHandler.DeleteInventory)

		// Playbooks
		protected.GET("/playbooks", middleware.RequirePermission("playbooks:read"), playbookHandler.ListPlaybooks)
		protected.POST("/playbooks", middleware.RequirePermission("playbooks:create"), playbookHandler.CreatePlaybook)
		protected.GET("/playbooks/kubernetes", middleware.RequirePermission("playbooks:read"), playbookHandler.ListKubernetesPlaybooks)
		protected.GET("/playbooks/:id", middleware.RequirePermission("playbooks:read"), playbookHandler.GetPlaybook)
		protected.PUT("/playbooks/:id", middleware.RequirePermission("playbooks:update"), playbookHandler.UpdatePlaybook)
		protected.DELETE("/playbooks/:id", middleware.RequirePermission("playbooks:delete"), playbookHandler.DeletePlaybook)
		protected.POST("/playbooks/:id/execute", middleware.RequirePermission("playbooks:execute"), playbookHandler.ExecutePlaybook)
		protected.GET("/playbooks/:id/executions", middleware.RequirePermission("executions:read"), playbookHandler.ListPlaybookExecutions)

		// SSH keys and credentials
		protected.GET("/ssh-keys", middleware.RequirePermission("credentials:read"), credentialHandler.ListSSHKeys)
		protected.POST("/ssh-keys", middleware.RequirePermission("credentials:create"), credentialHandler.CreateSSHKey)
		protected.GET("/ssh-keys/:id", middleware.RequirePermission("credentials:read"), credentialHandler.GetSSHKey)
		protected.DELETE("/ssh-keys/:id", middleware.RequirePermission("credentials:delete"), credentialHandler.DeleteSSHKey)

		protected.GET("/credentials", middleware.RequirePermission("credentials:read"), credentialHandler.ListCredentials)
		protected.POST("/credentials", middleware.RequirePermission("credentials:create"), credentialHandler.CreateCredential)
		protected.GET("/credentials/:id", middleware.RequirePermission("credentials:read"), credentialHandler.GetCredential)
		protected.DELETE("/credentials/:id", middleware.RequirePermission("credentials:delete"), credentialHandler.DeleteCredential)

		// Kubernetes clusters
		protected.GET("/clusters", middleware.RequirePermission("kubernetes:cluster:read"), clusterHandler.ListClusters)
		protected.POST("/clusters", middleware.RequirePermission("kubernetes:cluster:create"), clusterHandler.CreateCluster)
		protected.POST("/clusters/register", middleware.RequirePermission("kubernetes:cluster:register"), clusterHandler.RegisterCluster)
		protected.POST("/clusters/register/upload", middleware.RequirePermission("kubernetes:cluster:register"), clusterHandler.RegisterClusterUpload)
		protected.POST("/clusters/validate-kubeconfig", middleware.RequirePermission("kubernetes:cluster:read"), clusterHandler.ValidateAuthData)
		protected.GET("/clusters/:id", middleware.RequirePermission("kubernetes:cluster:read"), clusterHandler.GetCluster)
		protected.PUT("/clusters/:id", middleware.RequirePermission("kubernetes:cluster:update"), clusterHandler.UpdateCluster)
		protected.DELETE("/clusters/:id", middleware.RequirePermission("kubernetes:cluster:delete"), clusterHandler.DeleteCluster)
		protected.GET("/clusters/:id/nodes", middleware.RequirePermission("kubernetes:cluster:read"), clusterHandler.GetClusterNodes)
		protected.GET("/clusters/:id/nodes/summary", middleware.RequirePermission("kubernetes:cluster:read"), clusterHandler.GetClusterNodes)
		protected.POST("/clusters/:id/refresh", middleware.RequirePermission("kubernetes:cluster:update"), clusterHandler.RefreshClusterNodes)
		protected.POST("/clusters/:id/nodes/refresh", middleware.RequirePermission("kubernetes:cluster:update"), clusterHandler.RefreshClusterNodes)
		protected.GET("/clusters/:id/health", middleware.RequirePermission("kubernetes:cluster:read"), clusterHandler.GetClusterHealth)
		protected.GET("/clusters/:id/kubeconfig", middleware.RequirePermission("kubernetes:cluster:read"), clusterHandler.GetClusterKubeconfig)

		// Executions
		protected.GET("/executions", middleware.RequirePermission("executions:read"), executionHandler.ListExecutions)
		protected.GET("/executions/stats", middleware.RequirePermission("executions:read"), executionHandler.GetExecutionStats)
		protected.GET("/executions/:id", middleware.RequirePermission("executions:read"), executionHandler.GetExecution)
		protected.PUT("/executions/:id", middleware.RequirePermission("executions:update"), executionHandler.UpdateExecution)
		protected.POST("/executions/:id/complete", middleware.RequirePermission("executions:update"), executionHandler.CompleteExecution)
		protected.DELETE("/executions/:id", middleware.RequirePermission("executions:delete"), executionHandler.DeleteExecution)
		protected.GET("/executions/:id/stream", middleware.RequirePermission("executions:read"), executionHandler.StreamExecution)
	}

	return router
}
