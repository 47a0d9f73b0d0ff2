package service

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CloudSihmar/ansible-platform/internal/database"
	"github.com/CloudSihmar/ansible-platform/internal/database/models"
)

// PlaybookService handles Ansible playbook operations
type PlaybookService struct {
	db *database.Database
}

// NewPlaybookService creates a new playbook service
func NewPlaybookService(db *database.Database) *PlaybookService {
	return &PlaybookService{db: db}
}

// CreatePlaybookRequest represents a request to create a playbook
type CreatePlaybookRequest struct {
	Name            string
	Description     string
	Content         string
	PlaybookType    string
	RepositoryURL   string
	LocalPath       string
	VariablesSchema string
}

// CreatePlaybook creates a new playbook for a user
func (s *PlaybookService) CreatePlaybook(userID string, req *CreatePlaybookRequest) (*models.Playbook, error) {
	playbookType := req.PlaybookType
	if playbookType == "" {
		playbookType = "custom"
	}
	schema := req.VariablesSchema
	if schema == "" {
		schema = "{}"
	}

	if _, err := s.db.GetPlaybookByName(userID, req.Name); err == nil {
		return nil, fmt.Errorf("playbook with this name already exists")
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check playbook name: %w", err)
	}

	now := time.Now().UTC()
	pb := &models.Playbook{
		ID:              uuid.New().String(),
		UserID:          userID,
		Name:            req.Name,
		Description:     req.Description,
		Content:         req.Content,
		PlaybookType:    playbookType,
		RepositoryURL:   sql.NullString{String: req.RepositoryURL, Valid: req.RepositoryURL != ""},
		LocalPath:       sql.NullString{String: req.LocalPath, Valid: req.LocalPath != ""},
		VariablesSchema: schema,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.db.CreatePlaybook(pb); err != nil {
		return nil, fmt.Errorf("failed to create playbook: %w", err)
	}
	return pb, nil
}

// GetPlaybook retrieves a playbook, enforcing ownership
func (s *PlaybookService) GetPlaybook(id, userID string) (*models.Playbook, error) {
	pb, err := s.db.GetPlaybook(id)
	if err != nil {
		return nil, err
	}
	if pb.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return pb, nil
}

// ListPlaybooks retrieves all playbooks owned by a user
func (s *PlaybookService) ListPlaybooks(userID string) ([]*models.Playbook, error) {
	return s.db.ListPlaybooks(userID, "")
}

// ListKubernetesPlaybooks retrieves the user's Kubernetes deployment playbooks
func (s *PlaybookService) ListKubernetesPlaybooks(userID string) ([]*models.Playbook, error) {
	return s.db.ListPlaybooks(userID, "kubernetes")
}

// UpdatePlaybookRequest carries optional playbook updates
type UpdatePlaybookRequest struct {
	Name            *string
	Description     *string
	Content         *string
	PlaybookType    *string
	RepositoryURL   *string
	LocalPath       *string
	VariablesSchema *string
}

// UpdatePlaybook applies partial updates to a playbook
func (s *PlaybookService) UpdatePlaybook(id, userID string, req *UpdatePlaybookRequest) (*models.Playbook, error) {
	pb, err := s.GetPlaybook(id, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != pb.Name {
		if _, err := s.db.GetPlaybookByName(userID, *req.Name); err == nil {
			return nil, fmt.Errorf("playbook with this name already exists")
		} else if err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to check playbook name: %w", err)
		}
		pb.Name = *req.Name
	}
	if req.Description != nil {
		pb.Description = *req.Description
	}
	if req.Content != nil {
		pb.Content = *req.Content
	}
	if req.PlaybookType != nil {
		pb.PlaybookType = *req.PlaybookType
	}
	if req.RepositoryURL != nil {
		pb.RepositoryURL = sql.NullString{String: *req.RepositoryURL, Valid: *req.RepositoryURL != ""}
	}
	if req.LocalPath != nil {
		pb.LocalPath = sql.NullString{String: *req.LocalPath, Valid: *req.LocalPath != ""}
	}
	if req.VariablesSchema != nil {
		pb.VariablesSchema = *req.VariablesSchema
	}

	pb.UpdatedAt = time.Now().UTC()
	if err := s.db.UpdatePlaybook(pb); err != nil {
		return nil, fmt.Errorf("failed to update playbook: %w", err)
	}
	return pb, nil
}

// DeletePlaybook deletes a playbook, enforcing ownership
func (s *PlaybookService) DeletePlaybook(id, userID string) error {
	if _, err := s.GetPlaybook(id, userID); err != nil {
		return err
	}
	return s.db.DeletePlaybook(id)
}
