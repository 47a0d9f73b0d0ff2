// Package handlers provides HTTP request handlers for the Ansible Platform
// API: setup, authentication, users, inventories, playbooks, credentials,
// Kubernetes clusters and playbook executions. Errors are returned as JSON
// objects with a "detail" field.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CloudSihmar/ansible-platform/internal/service"
)

// SetupHandler handles first-run setup operations
type SetupHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

// NewSetupHandler creates a new setup handler
func NewSetupHandler(userService *service.UserService, logger *zap.Logger) *SetupHandler {
	return &SetupHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetStatus checks if initial setup has been completed
func (h *SetupHandler) GetStatus(c *gin.Context) {
	isComplete, err := h.userService.IsSetupComplete()
	if err != nil {
		h.logger.Error("Failed to check setup status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to check setup status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"setup_complete": isComplete,
	})
}

// SetupRequest represents an initial setup request
type SetupRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// PerformSetup creates the first admin user and generates the master key
func (h *SetupHandler) PerformSetup(c *gin.Context) {
	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	result, err := h.userService.PerformInitialSetup(&service.SetupRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrSetupComplete) {
			c.JSON(http.StatusConflict, gin.H{"detail": "Setup already complete"})
			return
		}
		h.logger.Error("Setup failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	h.logger.Info("Initial setup completed", zap.String("username", req.Username))

	c.JSON(http.StatusOK, gin.H{
		"message":      "Setup completed successfully",
		"master_key":   result.MasterKey,
		"access_token": result.Token,
		"token_type":   "bearer",
		"user":         result.User,
	})
}
