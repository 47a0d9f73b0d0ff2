package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CloudSihmar/ansible-platform/internal/database"
	"github.com/CloudSihmar/ansible-platform/internal/database/models"
)

// InventoryService handles Ansible inventory operations
type InventoryService struct {
	db *database.Database
}

// NewInventoryService creates a new inventory service
func NewInventoryService(db *database.Database) *InventoryService {
	return &InventoryService{db: db}
}

// CreateInventoryRequest represents a request to create an inventory
type CreateInventoryRequest struct {
	Name          string
	Description   string
	InventoryType string
	Content       string
	Variables     string
}

// CreateInventory creates a new inventory for a user
func (s *InventoryService) CreateInventory(userID string, req *CreateInventoryRequest) (*models.Inventory, error) {
	inventoryType := req.InventoryType
	if inventoryType == "" {
		inventoryType = "static"
	}
	variables := req.Variables
	if variables == "" {
		variables = "{}"
	}

	if inventoryType == "static" && !s.ValidateContent(req.Content) {
		return nil, fmt.Errorf("inventory content is not a valid INI inventory")
	}

	if _, err := s.db.GetInventoryByName(userID, req.Name); err == nil {
		return nil, fmt.Errorf("inventory with this name already exists")
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check inventory name: %w", err)
	}

	now := time.Now().UTC()
	inv := &models.Inventory{
		ID:            uuid.New().String(),
		UserID:        userID,
		Name:          req.Name,
		Description:   req.Description,
		InventoryType: inventoryType,
		Content:       req.Content,
		Variables:     variables,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.db.CreateInventory(inv); err != nil {
		return nil, fmt.Errorf("failed to create inventory: %w", err)
	}
	return inv, nil
}

// GetInventory retrieves an inventory, enforcing ownership
func (s *InventoryService) GetInventory(id, userID string) (*models.Inventory, error) {
	inv, err := s.db.GetInventory(id)
	if err != nil {
		return nil, err
	}
	if inv.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return inv, nil
}

// ListInventories retrieves all inventories owned by a user
func (s *InventoryService) ListInventories(userID string) ([]*models.Inventory, error) {
	return s.db.ListInventories(userID)
}

// UpdateInventoryRequest carries optional inventory updates
type UpdateInventoryRequest struct {
	Name          *string
	Description   *string
	InventoryType *string
	Content       *string
	Variables     *string
}

// UpdateInventory applies partial updates to an inventory
func (s *InventoryService) UpdateInventory(id, userID string, req *UpdateInventoryRequest) (*models.Inventory, error) {
	inv, err := s.GetInventory(id, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != inv.Name {
		if _, err := s.db.GetInventoryByName(userID, *req.Name); err == nil {
			return nil, fmt.Errorf("inventory with this name already exists")
		} else if err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to check inventory name: %w", err)
		}
		inv.Name = *req.Name
	}
	if req.Description != nil {
		inv.Description = *req.Description
	}
	if req.InventoryType != nil {
		inv.InventoryType = *req.InventoryType
	}
	if req.Content != nil {
		inv.Content = *req.Content
	}
	if req.Variables != nil {
		inv.Variables = *req.Variables
	}

	inv.UpdatedAt = time.Now().UTC()
	if err := s.db.UpdateInventory(inv); err != nil {
		return nil, fmt.Errorf("failed to update inventory: %w", err)
	}
	return inv, nil
}

// DeleteInventory deletes an inventory, enforcing ownership
func (s *InventoryService) DeleteInventory(id, userID string) error {
	if _, err := s.GetInventory(id, userID); err != nil {
		return err
	}
	return s.db.DeleteInventory(id)
}

// ValidateContent performs a basic INI-format check: at least one group
// header followed by a host or key=value line.
func (s *InventoryService) ValidateContent(content string) bool {
	groupFound := false
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			groupFound = true
			continue
		}
		if groupFound {
			return true
		}
	}
	return false
}
