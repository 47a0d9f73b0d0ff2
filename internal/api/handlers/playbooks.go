package handlers

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CloudSihmar/ansible-platform/internal/service"
)

// PlaybookHandler handles Ansible playbook operations
type PlaybookHandler struct {
	playbookService  *service.PlaybookService
	executionService *service.ExecutionService
	logger           *zap.Logger
}

// NewPlaybookHandler creates a new playbook handler
func NewPlaybookHandler(playbookService *service.PlaybookService, executionService *service.ExecutionService, logger *zap.Logger) *PlaybookHandler {
	return &PlaybookHandler{
		playbookService:  playbookService,
		executionService: executionService,
		logger:           logger,
	}
}

// CreatePlaybookRequest represents a playbook creation request
type CreatePlaybookRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	Content         string `json:"content" binding:"required"`
	PlaybookType    string `json:"playbook_type"`
	RepositoryURL   string `json:"repository_url"`
	LocalPath       string `json:"local_path"`
	VariablesSchema string `json:"variables_schema"`
}

// CreatePlaybook creates a new playbook
func (h *PlaybookHandler) CreatePlaybook(c *gin.Context) {
	var req CreatePlaybookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	pb, err := h.playbookService.CreatePlaybook(c.GetString("user_id"), &service.CreatePlaybookRequest{
		Name:            req.Name,
		Description:     req.Description,
		Content:         req.Content,
		PlaybookType:    req.PlaybookType,
		RepositoryURL:   req.RepositoryURL,
		LocalPath:       req.LocalPath,
		VariablesSchema: req.VariablesSchema,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	h.logger.Info("Playbook created", zap.String("name", pb.Name))
	c.JSON(http.StatusCreated, pb)
}

// ListPlaybooks returns the user's playbooks
func (h *PlaybookHandler) ListPlaybooks(c *gin.Context) {
	playbooks, err := h.playbookService.ListPlaybooks(c.GetString("user_id"))
	if err != nil {
		h.logger.Error("Failed to list playbooks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list playbooks"})
		return
	}
	c.JSON(http.StatusOK, playbooks)
}

// ListKubernetesPlaybooks returns the user's Kubernetes deployment playbooks
func (h *PlaybookHandler) ListKubernetesPlaybooks(c *gin.Context) {
	playbooks, err := h.playbookService.ListKubernetesPlaybooks(c.GetString("user_id"))
	if err != nil {
		h.logger.Error("Failed to list playbooks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list playbooks"})
		return
	}
	c.JSON(http.StatusOK, playbooks)
}

// GetPlaybook returns a single playbook
func (h *PlaybookHandler) GetPlaybook(c *gin.Context) {
	pb, err := h.playbookService.GetPlaybook(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Playbook not found"})
		return
	}
	c.JSON(http.StatusOK, pb)
}

// UpdatePlaybookRequest represents a playbook update request
type UpdatePlaybookRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Content         *string `json:"content"`
	PlaybookType    *string `json:"playbook_type"`
	RepositoryURL   *string `json:"repository_url"`
	LocalPath       *string `json:"local_path"`
	VariablesSchema *string `json:"variables_schema"`
}

// UpdatePlaybook applies partial updates to a playbook
func (h *PlaybookHandler) UpdatePlaybook(c *gin.Context) {
	var req UpdatePlaybookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	pb, err := h.playbookService.UpdatePlaybook(c.Param("id"), c.GetString("user_id"), &service.UpdatePlaybookRequest{
		Name:            req.Name,
		Description:     req.Description,
		Content:         req.Content,
		PlaybookType:    req.PlaybookType,
		RepositoryURL:   req.RepositoryURL,
		LocalPath:       req.LocalPath,
		VariablesSchema: req.VariablesSchema,
	})
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Playbook not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pb)
}

// DeletePlaybook deletes a playbook
func (h *PlaybookHandler) DeletePlaybook(c *gin.Context) {
	if err := h.playbookService.DeletePlaybook(c.Param("id"), c.GetString("user_id")); err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Playbook not found"})
			return
		}
		h.logger.Error("Failed to delete playbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to delete playbook"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Playbook deleted"})
}

// ExecutePlaybookRequest represents a playbook execution request
type ExecutePlaybookRequest struct {
	InventoryID string                 `json:"inventory_id" binding:"required"`
	ExtraVars   map[string]interface{} `json:"extra_vars"`
	Tags        []string               `json:"tags"`
	SkipTags    []string               `json:"skip_tags"`
}

// ExecutePlaybook starts a background execution of a playbook
func (h *PlaybookHandler) ExecutePlaybook(c *gin.Context) {
	var req ExecutePlaybookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	exec, err := h.executionService.Execute(c.GetString("user_id"), &service.ExecuteRequest{
		PlaybookID:  c.Param("id"),
		InventoryID: req.InventoryID,
		ExtraVars:   req.ExtraVars,
		Tags:        req.Tags,
		SkipTags:    req.SkipTags,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if strings.HasSuffix(err.Error(), "not found") {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"detail": err.Error()})
		return
	}

	h.logger.Info("Playbook execution started",
		zap.String("playbook_id", c.Param("id")),
		zap.String("execution_id", exec.ID))
	c.JSON(http.StatusAccepted, exec)
}

// ListPlaybookExecutions returns the executions of one playbook
func (h *PlaybookHandler) ListPlaybookExecutions(c *gin.Context) {
	executions, err := h.executionService.ListPlaybookExecutions(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Playbook not found"})
			return
		}
		h.logger.Error("Failed to list executions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list executions"})
		return
	}
	c.JSON(http.StatusOK, executions)
}
