package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/CloudSihmar/ansible-platform/internal/service"
)

// ExecutionHandler handles job execution operations
type ExecutionHandler struct {
	executionService *service.ExecutionService
	logger           *zap.Logger
	upgrader         websocket.Upgrader
}

// NewExecutionHandler creates a new execution handler
func NewExecutionHandler(executionService *service.ExecutionService, logger *zap.Logger) *ExecutionHandler {
	return &ExecutionHandler{
		executionService: executionService,
		logger:           logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ListExecutions returns the user's recent executions
func (h *ExecutionHandler) ListExecutions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid limit"})
			return
		}
		limit = parsed
	}

	executions, err := h.executionService.ListExecutions(c.GetString("user_id"), limit)
	if err != nil {
		h.logger.Error("Failed to list executions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list executions"})
		return
	}
	c.JSON(http.StatusOK, executions)
}

// GetExecutionStats returns aggregate statistics over recent executions
func (h *ExecutionHandler) GetExecutionStats(c *gin.Context) {
	stats, err := h.executionService.Stats(c.GetString("user_id"))
	if err != nil {
		h.logger.Error("Failed to compute execution stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to compute execution stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetExecution returns a single execution record
func (h *ExecutionHandler) GetExecution(c *gin.Context) {
	exec, err := h.executionService.GetExecution(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Execution not found"})
		return
	}
	c.JSON(http.StatusOK, exec)
}

// UpdateExecutionRequest represents an execution update request
type UpdateExecutionRequest struct {
	Status       *string `json:"status" binding:"omitempty,oneof=running success failed cancelled"`
	Output       *string `json:"output"`
	ErrorMessage *string `json:"error_message"`
}

// UpdateExecution applies partial updates to an execution record
func (h *ExecutionHandler) UpdateExecution(c *gin.Context) {
	var req UpdateExecutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	exec, err := h.executionService.UpdateExecution(c.Param("id"), c.GetString("user_id"), &service.UpdateExecutionRequest{
		Status:       req.Status,
		Output:       req.Output,
		ErrorMessage: req.ErrorMessage,
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Execution not found"})
		return
	}
	c.JSON(http.StatusOK, exec)
}

// CompleteExecutionRequest represents an execution completion request
type CompleteExecutionRequest struct {
	Status       string `json:"status" binding:"omitempty,oneof=success failed cancelled"`
	Output       string `json:"output"`
	ErrorMessage string `json:"error_message"`
}

// CompleteExecution marks an execution finished
func (h *ExecutionHandler) CompleteExecution(c *gin.Context) {
	var req CompleteExecutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.Status == "" {
		req.Status = "success"
	}

	userID := c.GetString("user_id")
	id := c.Param("id")
	if _, err := h.executionService.GetExecution(id, userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Execution not found"})
		return
	}

	if err := h.executionService.Complete(id, req.Status, req.Output, req.ErrorMessage); err != nil {
		h.logger.Error("Failed to complete execution", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to complete execution"})
		return
	}

	exec, err := h.executionService.GetExecution(id, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to load execution"})
		return
	}
	c.JSON(http.StatusOK, exec)
}

// DeleteExecution deletes an execution record
func (h *ExecutionHandler) DeleteExecution(c *gin.Context) {
	if err := h.executionService.DeleteExecution(c.Param("id"), c.GetString("user_id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Execution not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Execution deleted"})
}

// streamMessage is one websocket frame of execution progress
type streamMessage struct {
	Status       string `json:"status"`
	Output       string `json:"output"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// StreamExecution upgrades to a websocket and pushes execution status and
// output until the execution completes or the client disconnects
func (h *ExecutionHandler) StreamExecution(c *gin.Context) {
	userID := c.GetString("user_id")
	id := c.Param("id")

	if _, err := h.executionService.GetExecution(id, userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Execution not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		exec, err := h.executionService.GetExecution(id, userID)
		if err != nil {
			return
		}

		msg := streamMessage{
			Status:       exec.Status,
			Output:       exec.Output,
			ErrorMessage: exec.ErrorMessage,
		}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
		if exec.Status != "running" {
			return
		}

		select {
		case <-ticker.C:
		case <-c.Request.Context().Done():
			return
		}
	}
}
