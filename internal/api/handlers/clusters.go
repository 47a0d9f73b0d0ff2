package handlers

import (
	"database/sql"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CloudSihmar/ansible-platform/internal/service"
)

// ClusterHandler handles Kubernetes cluster operations
type ClusterHandler struct {
	clusterService *service.ClusterService
	logger         *zap.Logger
}

// NewClusterHandler creates a new cluster handler
func NewClusterHandler(clusterService *service.ClusterService, logger *zap.Logger) *ClusterHandler {
	return &ClusterHandler{
		clusterService: clusterService,
		logger:         logger,
	}
}

// RegisterClusterRequest represents a cluster registration request
type RegisterClusterRequest struct {
	Name        string `json:"name" binding:"required"`
	AuthType    string `json:"auth_type" binding:"required,oneof=kubeconfig token"`
	AuthData    string `json:"auth_data" binding:"required"`
	APIServer   string `json:"api_server"`
	Description string `json:"description"`
}

// RegisterCluster registers an existing Kubernetes cluster
func (h *ClusterHandler) RegisterCluster(c *gin.Context) {
	var req RegisterClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	cluster, err := h.clusterService.RegisterExistingCluster(c.Request.Context(), c.GetString("user_id"), &service.RegisterClusterRequest{
		Name:        req.Name,
		AuthType:    req.AuthType,
		AuthData:    req.AuthData,
		APIServer:   req.APIServer,
		Description: req.Description,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	h.logger.Info("Cluster registered",
		zap.String("name", cluster.Name),
		zap.String("auth_type", cluster.AuthType))
	c.JSON(http.StatusCreated, cluster)
}

// RegisterClusterUpload registers a cluster from an uploaded kubeconfig file
func (h *ClusterHandler) RegisterClusterUpload(c *gin.Context) {
	name := c.PostForm("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "name is required"})
		return
	}

	file, err := c.FormFile("kubeconfig_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "kubeconfig_file is required"})
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".yaml" && ext != ".yml" && ext != ".config" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Unsupported file type. Use .yaml, .yml or .config"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Failed to read uploaded file"})
		return
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Failed to read uploaded file"})
		return
	}

	cluster, err := h.clusterService.RegisterExistingCluster(c.Request.Context(), c.GetString("user_id"), &service.RegisterClusterRequest{
		Name:        name,
		AuthType:    "kubeconfig",
		AuthData:    string(content),
		Description: c.PostForm("description"),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	h.logger.Info("Cluster registered from upload", zap.String("name", cluster.Name))
	c.JSON(http.StatusCreated, cluster)
}

// CreateClusterRequest represents a cluster provisioning request
type CreateClusterRequest struct {
	Name        string `json:"name" binding:"required"`
	MasterNodes int    `json:"master_nodes"`
	WorkerNodes int    `json:"worker_nodes"`
	InventoryID string `json:"inventory_id"`
	PlaybookID  string `json:"playbook_id"`
	Description string `json:"description"`
}

// CreateCluster records a cluster to be provisioned
func (h *ClusterHandler) CreateCluster(c *gin.Context) {
	var req CreateClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	cluster, err := h.clusterService.CreateCluster(c.GetString("user_id"), &service.CreateClusterRequest{
		Name:        req.Name,
		MasterNodes: req.MasterNodes,
		WorkerNodes: req.WorkerNodes,
		InventoryID: req.InventoryID,
		PlaybookID:  req.PlaybookID,
		Description: req.Description,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	h.logger.Info("Cluster created", zap.String("name", cluster.Name))
	c.JSON(http.StatusCreated, cluster)
}

// ListClusters returns the user's clusters
func (h *ClusterHandler) ListClusters(c *gin.Context) {
	clusters, err := h.clusterService.ListClusters(c.GetString("user_id"))
	if err != nil {
		h.logger.Error("Failed to list clusters", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list clusters"})
		return
	}
	c.JSON(http.StatusOK, clusters)
}

// GetCluster returns a single cluster
func (h *ClusterHandler) GetCluster(c *gin.Context) {
	cluster, err := h.clusterService.GetCluster(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Cluster not found"})
		return
	}
	c.JSON(http.StatusOK, cluster)
}

// UpdateClusterRequest represents a cluster update request
type UpdateClusterRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status" binding:"omitempty,oneof=pending creating registered active failed"`
}

// UpdateCluster applies partial updates to a cluster
func (h *ClusterHandler) UpdateCluster(c *gin.Context) {
	var req UpdateClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	cluster, err := h.clusterService.UpdateCluster(c.Param("id"), c.GetString("user_id"), &service.UpdateClusterRequest{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Cluster not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cluster)
}

// DeleteCluster deletes a cluster record
func (h *ClusterHandler) DeleteCluster(c *gin.Context) {
	if err := h.clusterService.DeleteCluster(c.Param("id"), c.GetString("user_id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Cluster not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cluster deleted"})
}

// GetClusterNodes returns the live node inventory of a cluster
func (h *ClusterHandler) GetClusterNodes(c *gin.Context) {
	summary, err := h.clusterService.GetNodeSummary(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Cluster not found"})
			return
		}
		// The stored counts are still returned alongside the error
		if summary != nil {
			c.JSON(http.StatusOK, gin.H{
				"cluster_id":   summary.ClusterID,
				"cluster_name": summary.ClusterName,
				"master_nodes": summary.Masters,
				"worker_nodes": summary.Workers,
				"total_nodes":  summary.Total,
				"health":       summary.Health,
				"error":        err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RefreshClusterNodes re-queries the cluster API and syncs node records
func (h *ClusterHandler) RefreshClusterNodes(c *gin.Context) {
	nodes, err := h.clusterService.RefreshNodes(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Cluster not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"nodes": nodes})
}

// GetClusterHealth reports cluster health derived from node readiness
func (h *ClusterHandler) GetClusterHealth(c *gin.Context) {
	health, err := h.clusterService.Health(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Cluster not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"health": health, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"health": health})
}

// GetClusterKubeconfig returns the decrypted kubeconfig for a cluster
func (h *ClusterHandler) GetClusterKubeconfig(c *gin.Context) {
	kubeconfig, err := h.clusterService.GetKubeconfig(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Cluster not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"kubeconfig": string(kubeconfig)})
}

// ValidateAuthDataRequest represents an auth data validation request
type ValidateAuthDataRequest struct {
	AuthType string `json:"auth_type" binding:"required"`
	AuthData string `json:"auth_data" binding:"required"`
}

// ValidateAuthData checks kubeconfig or token auth data without storing it
func (h *ClusterHandler) ValidateAuthData(c *gin.Context) {
	var req ValidateAuthDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	result := h.clusterService.ValidateAuthData(req.AuthData, req.AuthType)
	c.JSON(http.StatusOK, result)
}
