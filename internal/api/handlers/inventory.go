package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CloudSihmar/ansible-platform/internal/service"
)

// InventoryHandler handles Ansible inventory operations
type InventoryHandler struct {
	inventoryService *service.InventoryService
	logger           *zap.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventoryService *service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// CreateInventoryRequest represents an inventory creation request
type CreateInventoryRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	InventoryType string `json:"inventory_type"`
	Content       string `json:"content" binding:"required"`
	Variables     string `json:"variables"`
}

// CreateInventory creates a new inventory
func (h *InventoryHandler) CreateInventory(c *gin.Context) {
	var req CreateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	inv, err := h.inventoryService.CreateInventory(c.GetString("user_id"), &service.CreateInventoryRequest{
		Name:          req.Name,
		Description:   req.Description,
		InventoryType: req.InventoryType,
		Content:       req.Content,
		Variables:     req.Variables,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	h.logger.Info("Inventory created", zap.String("name", inv.Name))
	c.JSON(http.StatusCreated, inv)
}

// ListInventories returns the user's inventories
func (h *InventoryHandler) ListInventories(c *gin.Context) {
	inventories, err := h.inventoryService.ListInventories(c.GetString("user_id"))
	if err != nil {
		h.logger.Error("Failed to list inventories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list inventories"})
		return
	}
	c.JSON(http.StatusOK, inventories)
}

// GetInventory returns a single inventory
func (h *InventoryHandler) GetInventory(c *gin.Context) {
	inv, err := h.inventoryService.GetInventory(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Inventory not found"})
		return
	}
	c.JSON(http.StatusOK, inv)
}

// UpdateInventoryRequest represents an inventory update request
type UpdateInventoryRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	InventoryType *string `json:"inventory_type"`
	Content       *string `json:"content"`
	Variables     *string `json:"variables"`
}

// UpdateInventory applies partial updates to an inventory
func (h *InventoryHandler) UpdateInventory(c *gin.Context) {
	var req UpdateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	inv, err := h.inventoryService.UpdateInventory(c.Param("id"), c.GetString("user_id"), &service.UpdateInventoryRequest{
		Name:          req.Name,
		Description:   req.Description,
		InventoryType: req.InventoryType,
		Content:       req.Content,
		Variables:     req.Variables,
	})
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Inventory not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, inv)
}

// DeleteInventory deletes an inventory
func (h *InventoryHandler) DeleteInventory(c *gin.Context) {
	if err := h.inventoryService.DeleteInventory(c.Param("id"), c.GetString("user_id")); err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Inventory not found"})
			return
		}
		h.logger.Error("Failed to delete inventory", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to delete inventory"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Inventory deleted"})
}

// ValidateInventoryRequest represents an inventory validation request
type ValidateInventoryRequest struct {
	Content string `json:"content" binding:"required"`
}

// ValidateInventory checks inventory content for basic INI validity
func (h *InventoryHandler) ValidateInventory(c *gin.Context) {
	var req ValidateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": h.inventoryService.ValidateContent(req.Content),
	})
}
