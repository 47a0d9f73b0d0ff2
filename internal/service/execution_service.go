package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CloudSihmar/ansible-platform/internal/ansible"
	"github.com/CloudSihmar/ansible-platform/internal/database"
	"github.com/CloudSihmar/ansible-platform/internal/database/models"
)

// ExecutionService manages playbook executions: records, background runs
// and aggregate statistics.
type ExecutionService struct {
	db          *database.Database
	runner      *ansible.Runner
	playbooks   *PlaybookService
	inventories *InventoryService
	credentials *CredentialService
	logger      *zap.Logger
}

// NewExecutionService creates a new execution service
func NewExecutionService(db *database.Database, runner *ansible.Runner, playbooks *PlaybookService, inventories *InventoryService, credentials *CredentialService, logger *zap.Logger) *ExecutionService {
	return &ExecutionService{
		db:          db,
		runner:      runner,
		playbooks:   playbooks,
		inventories: inventories,
		credentials: credentials,
		logger:      logger,
	}
}

// ExecuteRequest represents a request to run a playbook
type ExecuteRequest struct {
	PlaybookID  string
	InventoryID string
	ExtraVars   map[string]interface{}
	Tags        []string
	SkipTags    []string
}

// Execute verifies ownership of the playbook and inventory, records a
// running execution and starts the playbook in the background
func (s *ExecutionService) Execute(userID string, req *ExecuteRequest) (*models.JobExecution, error) {
	playbook, err := s.playbooks.GetPlaybook(req.PlaybookID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("playbook not found")
		}
		return nil, err
	}
	inventory, err := s.inventories.GetInventory(req.InventoryID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("inventory not found")
		}
		return nil, err
	}

	exec := &models.JobExecution{
		ID:          uuid.New().String(),
		UserID:      userID,
		PlaybookID:  sql.NullString{String: playbook.ID, Valid: true},
		InventoryID: sql.NullString{String: inventory.ID, Valid: true},
		Status:      "running",
		StartedAt:   time.Now().UTC(),
	}
	if err := s.db.CreateExecution(exec); err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	go s.run(exec.ID, userID, playbook, inventory, req)
	return exec, nil
}

// run executes the playbook and records the outcome. It runs in its own
// goroutine detached from the request context.
func (s *ExecutionService) run(executionID, userID string, playbook *models.Playbook, inventory *models.Inventory, req *ExecuteRequest) {
	logger := s.logger.With(
		zap.String("execution_id", executionID),
		zap.String("playbook", playbook.Name))

	runReq := ansible.RunRequest{
		PlaybookContent:  playbook.Content,
		InventoryContent: inventory.Content,
		ExtraVars:        req.ExtraVars,
		Tags:             strings.Join(req.Tags, ","),
		SkipTags:         strings.Join(req.SkipTags, ","),
	}

	// Use the user's first SSH key when one exists
	keys, err := s.credentials.ListSSHKeys(userID)
	if err != nil {
		logger.Error("Failed to list SSH keys", zap.Error(err))
		s.complete(executionID, "failed", "", fmt.Sprintf("failed to load SSH keys: %v", err))
		return
	}
	if len(keys) > 0 {
		keyData, err := s.credentials.GetSSHKeyData(keys[0].ID, userID)
		if err != nil {
			logger.Error("Failed to decrypt SSH key", zap.Error(err))
			s.complete(executionID, "failed", "", fmt.Sprintf("failed to load SSH key: %v", err))
			return
		}
		runReq.SSHPrivateKey = keyData.PrivateKey
	}

	result, err := s.runner.Run(context.Background(), runReq)
	if err != nil {
		logger.Error("Playbook run failed to start", zap.Error(err))
		s.complete(executionID, "failed", "", err.Error())
		return
	}

	output := result.Stdout
	if result.Succeeded() {
		logger.Info("Playbook execution succeeded")
		s.complete(executionID, "success", output, "")
	} else {
		logger.Warn("Playbook execution failed", zap.Int("exit_code", result.ExitCode))
		s.complete(executionID, "failed", output, result.Stderr)
	}
}

func (s *ExecutionService) complete(id, status, output, errorMessage string) {
	if err := s.Complete(id, status, output, errorMessage); err != nil {
		s.logger.Error("Failed to record execution result",
			zap.String("execution_id", id),
			zap.Error(err))
	}
}

// Complete marks an execution finished with the given status and output
func (s *ExecutionService) Complete(id, status, output, errorMessage string) error {
	exec, err := s.db.GetExecution(id)
	if err != nil {
		return err
	}
	exec.Status = status
	exec.Output = output
	exec.ErrorMessage = errorMessage
	exec.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	return s.db.UpdateExecution(exec)
}

// UpdateExecutionRequest carries optional execution updates
type UpdateExecutionRequest struct {
	Status       *string
	Output       *string
	ErrorMessage *string
}

// UpdateExecution applies partial updates to an execution, enforcing
// ownership. Setting a terminal status records the completion time.
func (s *ExecutionService) UpdateExecution(id, userID string, req *UpdateExecutionRequest) (*models.JobExecution, error) {
	exec, err := s.GetExecution(id, userID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		exec.Status = *req.Status
		if *req.Status != "running" && !exec.CompletedAt.Valid {
			exec.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
		}
	}
	if req.Output != nil {
		exec.Output = *req.Output
	}
	if req.ErrorMessage != nil {
		exec.ErrorMessage = *req.ErrorMessage
	}

	if err := s.db.UpdateExecution(exec); err != nil {
		return nil, fmt.Errorf("failed to update execution: %w", err)
	}
	return exec, nil
}

// GetExecution retrieves an execution, enforcing ownership
func (s *ExecutionService) GetExecution(id, userID string) (*models.JobExecution, error) {
	exec, err := s.db.GetExecution(id)
	if err != nil {
		return nil, err
	}
	if exec.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return exec, nil
}

// ListExecutions retrieves a user's executions, newest first. A limit of 0
// defaults to 50.
func (s *ExecutionService) ListExecutions(userID string, limit int) ([]*models.JobExecution, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.db.ListExecutions(userID, limit)
}

// ListPlaybookExecutions retrieves executions of one playbook, enforcing
// playbook ownership
func (s *ExecutionService) ListPlaybookExecutions(playbookID, userID string) ([]*models.JobExecution, error) {
	if _, err := s.playbooks.GetPlaybook(playbookID, userID); err != nil {
		return nil, err
	}
	return s.db.ListPlaybookExecutions(playbookID, userID)
}

// DeleteExecution deletes an execution record, enforcing ownership
func (s *ExecutionService) DeleteExecution(id, userID string) error {
	if _, err := s.GetExecution(id, userID); err != nil {
		return err
	}
	return s.db.DeleteExecution(id)
}

// ExecutionStats aggregates a user's recent execution history
type ExecutionStats struct {
	Total           int      `json:"total_executions"`
	Successful      int      `json:"successful_executions"`
	Failed          int      `json:"failed_executions"`
	Running         int      `json:"running_executions"`
	AverageDuration *float64 `json:"average_duration_seconds"`
}

// Stats computes counts and average duration over the user's most recent
// executions (up to 1000)
func (s *ExecutionService) Stats(userID string) (*ExecutionStats, error) {
	executions, err := s.db.ListExecutions(userID, 1000)
	if err != nil {
		return nil, err
	}

	stats := &ExecutionStats{Total: len(executions)}
	var totalDuration float64
	var completed int
	for _, exec := range executions {
		switch exec.Status {
		case "success":
			stats.Successful++
		case "failed":
			stats.Failed++
		case "running":
			stats.Running++
		}
		if exec.CompletedAt.Valid {
			totalDuration += exec.CompletedAt.Time.Sub(exec.StartedAt).Seconds()
			completed++
		}
	}
	if completed > 0 {
		avg := totalDuration / float64(completed)
		stats.AverageDuration = &avg
	}
	return stats, nil
}
