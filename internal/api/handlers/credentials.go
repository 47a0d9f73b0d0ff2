package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CloudSihmar/ansible-platform/internal/service"
)

// CredentialHandler handles SSH key and credential operations
type CredentialHandler struct {
	credentialService *service.CredentialService
	logger            *zap.Logger
}

// NewCredentialHandler creates a new credential handler
func NewCredentialHandler(credentialService *service.CredentialService, logger *zap.Logger) *CredentialHandler {
	return &CredentialHandler{
		credentialService: credentialService,
		logger:            logger,
	}
}

// CreateSSHKeyRequest represents an SSH key creation request
type CreateSSHKeyRequest struct {
	Name       string `json:"name" binding:"required"`
	PrivateKey string `json:"private_key" binding:"required"`
	Passphrase string `json:"passphrase"`
}

// CreateSSHKey stores a new SSH key
func (h *CredentialHandler) CreateSSHKey(c *gin.Context) {
	var req CreateSSHKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	key, err := h.credentialService.CreateSSHKey(c.GetString("user_id"), &service.CreateSSHKeyRequest{
		Name:       req.Name,
		PrivateKey: req.PrivateKey,
		Passphrase: req.Passphrase,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	h.logger.Info("SSH key created", zap.String("name", key.Name))
	c.JSON(http.StatusCreated, key)
}

// ListSSHKeys returns the user's SSH keys
func (h *CredentialHandler) ListSSHKeys(c *gin.Context) {
	keys, err := h.credentialService.ListSSHKeys(c.GetString("user_id"))
	if err != nil {
		h.logger.Error("Failed to list SSH keys", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list SSH keys"})
		return
	}
	c.JSON(http.StatusOK, keys)
}

// GetSSHKey returns a single SSH key record
func (h *CredentialHandler) GetSSHKey(c *gin.Context) {
	key, err := h.credentialService.GetSSHKey(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "SSH key not found"})
		return
	}
	c.JSON(http.StatusOK, key)
}

// DeleteSSHKey deletes an SSH key
func (h *CredentialHandler) DeleteSSHKey(c *gin.Context) {
	if err := h.credentialService.DeleteSSHKey(c.Param("id"), c.GetString("user_id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "SSH key not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "SSH key deleted"})
}

// CreateCredentialRequest represents a credential creation request
type CreateCredentialRequest struct {
	Name           string `json:"name" binding:"required"`
	Username       string `json:"username" binding:"required"`
	Password       string `json:"password" binding:"required"`
	CredentialType string `json:"credential_type"`
}

// CreateCredential stores a new username/password credential
func (h *CredentialHandler) CreateCredential(c *gin.Context) {
	var req CreateCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	cred, err := h.credentialService.CreateCredential(c.GetString("user_id"), &service.CreateCredentialRequest{
		Name:           req.Name,
		Username:       req.Username,
		Password:       req.Password,
		CredentialType: req.CredentialType,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	h.logger.Info("Credential created", zap.String("name", cred.Name))
	c.JSON(http.StatusCreated, cred)
}

// ListCredentials returns the user's credentials
func (h *CredentialHandler) ListCredentials(c *gin.Context) {
	creds, err := h.credentialService.ListCredentials(c.GetString("user_id"))
	if err != nil {
		h.logger.Error("Failed to list credentials", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list credentials"})
		return
	}
	c.JSON(http.StatusOK, creds)
}

// GetCredential returns a single credential record
func (h *CredentialHandler) GetCredential(c *gin.Context) {
	cred, err := h.credentialService.GetCredential(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Credential not found"})
		return
	}
	c.JSON(http.StatusOK, cred)
}

// DeleteCredential deletes a credential
func (h *CredentialHandler) DeleteCredential(c *gin.Context) {
	if err := h.credentialService.DeleteCredential(c.Param("id"), c.GetString("user_id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Credential not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Credential deleted"})
}
