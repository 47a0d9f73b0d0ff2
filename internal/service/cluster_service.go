package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CloudSihmar/ansible-platform/internal/config"
	"github.com/CloudSihmar/ansible-platform/internal/crypto"
	"github.com/CloudSihmar/ansible-platform/internal/database"
	"github.com/CloudSihmar/ansible-platform/internal/database/models"
	"github.com/CloudSihmar/ansible-platform/internal/kube"
)

// ClusterService manages Kubernetes cluster records and live cluster
// queries. Kubeconfigs and bearer tokens are encrypted at rest with the
// system master key.
type ClusterService struct {
	db     *database.Database
	cfg    *config.Config
	users  *UserService
	logger *zap.Logger
}

// NewClusterService creates a new cluster service
func NewClusterService(db *database.Database, cfg *config.Config, users *UserService, logger *zap.Logger) *ClusterService {
	return &ClusterService{db: db, cfg: cfg, users: users, logger: logger}
}

// RegisterClusterRequest represents a request to register an existing cluster
type RegisterClusterRequest struct {
	Name        string
	AuthType    string // "kubeconfig" or "token"
	AuthData    string // kubeconfig content or bearer token
	APIServer   string // required for token auth
	Description string
}

// RegisterExistingCluster validates the auth data, encrypts it and stores
// the cluster with status "registered". Node counts are probed best-effort
// right after registration.
func (s *ClusterService) RegisterExistingCluster(ctx context.Context, userID string, req *RegisterClusterRequest) (*models.KubernetesCluster, error) {
	if _, err := s.db.GetClusterByName(userID, req.Name); err == nil {
		return nil, fmt.Errorf("cluster with this name already exists")
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check cluster name: %w", err)
	}

	result := kube.ValidateAuthData(req.AuthData, req.AuthType)
	if !result.Valid {
		return nil, fmt.Errorf("invalid authentication data: %s", result.Error)
	}

	apiServer := req.APIServer
	description := req.Description
	switch req.AuthType {
	case "kubeconfig":
		if apiServer == "" {
			apiServer = kube.ExtractAPIServer(req.AuthData)
		}
		if description == "" {
			description = kube.ExtractClusterDescription(req.AuthData)
		}
	case "token":
		if apiServer == "" {
			return nil, fmt.Errorf("api_server is required for token authentication")
		}
		if description == "" {
			description = "Registered Kubernetes cluster"
		}
	}

	masterKey, err := s.users.GetMasterKey()
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	authDataEnc, err := crypto.Encrypt([]byte(req.AuthData), masterKey, id)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt auth data: %w", err)
	}

	now := time.Now().UTC()
	cluster := &models.KubernetesCluster{
		ID:            id,
		UserID:        userID,
		Name:          req.Name,
		ClusterType:   "existing",
		AuthType:      req.AuthType,
		APIServer:     sql.NullString{String: apiServer, Valid: apiServer != ""},
		KubeconfigEnc: authDataEnc,
		Status:        "registered",
		Description:   description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.db.CreateCluster(cluster); err != nil {
		return nil, fmt.Errorf("failed to create cluster: %w", err)
	}

	// Best-effort node probe; registration succeeds even if the cluster
	// is unreachable right now.
	if _, err := s.RefreshNodes(ctx, cluster.ID, userID); err != nil {
		s.logger.Debug("Initial node probe failed",
			zap.String("cluster_id", cluster.ID),
			zap.Error(err))
	} else if refreshed, err := s.db.GetCluster(cluster.ID); err == nil {
		cluster = refreshed
	}
	return cluster, nil
}

// CreateClusterRequest represents a request to provision a new cluster
type CreateClusterRequest struct {
	Name        string
	MasterNodes int
	WorkerNodes int
	InventoryID string
	PlaybookID  string
	Description string
}

// CreateCluster records a cluster to be provisioned, with status "creating"
func (s *ClusterService) CreateCluster(userID string, req *CreateClusterRequest) (*models.KubernetesCluster, error) {
	if _, err := s.db.GetClusterByName(userID, req.Name); err == nil {
		return nil, fmt.Errorf("cluster with this name already exists")
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check cluster name: %w", err)
	}

	masterNodes := req.MasterNodes
	if masterNodes == 0 {
		masterNodes = 1
	}

	now := time.Now().UTC()
	cluster := &models.KubernetesCluster{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        req.Name,
		ClusterType: "new",
		MasterNodes: masterNodes,
		WorkerNodes: req.WorkerNodes,
		Status:      "creating",
		Description: req.Description,
		InventoryID: sql.NullString{String: req.InventoryID, Valid: req.InventoryID != ""},
		PlaybookID:  sql.NullString{String: req.PlaybookID, Valid: req.PlaybookID != ""},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.CreateCluster(cluster); err != nil {
		return nil, fmt.Errorf("failed to create cluster: %w", err)
	}
	return cluster, nil
}

// GetCluster retrieves a cluster, enforcing ownership
func (s *ClusterService) GetCluster(id, userID string) (*models.KubernetesCluster, error) {
	cluster, err := s.db.GetCluster(id)
	if err != nil {
		return nil, err
	}
	if cluster.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return cluster, nil
}

// ListClusters retrieves all clusters owned by a user
func (s *ClusterService) ListClusters(userID string) ([]*models.KubernetesCluster, error) {
	return s.db.ListClusters(userID)
}

// UpdateClusterRequest carries optional cluster updates
type UpdateClusterRequest struct {
	Name        *string
	Description *string
	Status      *string
}

// UpdateCluster applies partial updates to a cluster
func (s *ClusterService) UpdateCluster(id, userID string, req *UpdateClusterRequest) (*models.KubernetesCluster, error) {
	cluster, err := s.GetCluster(id, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != cluster.Name {
		if _, err := s.db.GetClusterByName(userID, *req.Name); err == nil {
			return nil, fmt.Errorf("cluster with this name already exists")
		} else if err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to check cluster name: %w", err)
		}
		cluster.Name = *req.Name
	}
	if req.Description != nil {
		cluster.Description = *req.Description
	}
	if req.Status != nil {
		cluster.Status = *req.Status
	}

	cluster.UpdatedAt = time.Now().UTC()
	if err := s.db.UpdateCluster(cluster); err != nil {
		return nil, fmt.Errorf("failed to update cluster: %w", err)
	}
	return cluster, nil
}

// UpdateStatus sets a cluster's status, enforcing ownership
func (s *ClusterService) UpdateStatus(id, userID, status string) (*models.KubernetesCluster, error) {
	cluster, err := s.GetCluster(id, userID)
	if err != nil {
		return nil, err
	}
	cluster.Status = status
	cluster.UpdatedAt = time.Now().UTC()
	if err := s.db.UpdateCluster(cluster); err != nil {
		return nil, fmt.Errorf("failed to update cluster: %w", err)
	}
	return cluster, nil
}

// DeleteCluster deletes a cluster and its node records
func (s *ClusterService) DeleteCluster(id, userID string) error {
	if _, err := s.GetCluster(id, userID); err != nil {
		return err
	}
	return s.db.DeleteCluster(id)
}

// GetKubeconfig decrypts and returns a kubeconfig for the cluster. Token
// clusters get a minimal kubeconfig built around the stored token.
func (s *ClusterService) GetKubeconfig(id, userID string) ([]byte, error) {
	cluster, err := s.GetCluster(id, userID)
	if err != nil {
		return nil, err
	}
	return s.kubeconfigFor(cluster)
}

func (s *ClusterService) kubeconfigFor(cluster *models.KubernetesCluster) ([]byte, error) {
	if len(cluster.KubeconfigEnc) == 0 {
		return nil, fmt.Errorf("cluster has no stored authentication data")
	}

	masterKey, err := s.users.GetMasterKey()
	if err != nil {
		return nil, err
	}
	authData, err := crypto.Decrypt(cluster.KubeconfigEnc, masterKey, cluster.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt auth data: %w", err)
	}

	if cluster.AuthType == "token" {
		return kube.BuildTokenKubeconfig(string(authData), cluster.APIServer.String)
	}
	return authData, nil
}

// NodeSummary describes the current node inventory of a cluster
type NodeSummary struct {
	ClusterID   string          `json:"cluster_id"`
	ClusterName string          `json:"cluster_name"`
	Masters     int             `json:"master_nodes"`
	Workers     int             `json:"worker_nodes"`
	Total       int             `json:"total_nodes"`
	Health      string          `json:"health"`
	Nodes       []kube.NodeInfo `json:"nodes"`
}

// GetNodeSummary queries the cluster for its nodes and syncs the stored
// node records. When the cluster is unreachable the stored counts are
// returned along with the error.
func (s *ClusterService) GetNodeSummary(ctx context.Context, id, userID string) (*NodeSummary, error) {
	cluster, err := s.GetCluster(id, userID)
	if err != nil {
		return nil, err
	}

	nodes, err := s.RefreshNodes(ctx, id, userID)
	if err != nil {
		return &NodeSummary{
			ClusterID:   cluster.ID,
			ClusterName: cluster.Name,
			Masters:     cluster.MasterNodes,
			Workers:     cluster.WorkerNodes,
			Total:       cluster.MasterNodes + cluster.WorkerNodes,
			Health:      "unknown",
		}, err
	}

	masters, workers := kube.CountNodes(nodes)
	return &NodeSummary{
		ClusterID:   cluster.ID,
		ClusterName: cluster.Name,
		Masters:     masters,
		Workers:     workers,
		Total:       len(nodes),
		Health:      kube.HealthStatus(nodes),
		Nodes:       nodes,
	}, nil
}

// RefreshNodes queries the cluster API for its nodes, updates the stored
// node counts and replaces the cluster's node records
func (s *ClusterService) RefreshNodes(ctx context.Context, id, userID string) ([]kube.NodeInfo, error) {
	cluster, err := s.GetCluster(id, userID)
	if err != nil {
		return nil, err
	}

	kubeconfig, err := s.kubeconfigFor(cluster)
	if err != nil {
		return nil, err
	}
	client, err := kube.NewClient(kubeconfig, s.cfg.Kube.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to build cluster client: %w", err)
	}

	nodes, err := client.ListNodes(ctx)
	if err != nil {
		return nil, err
	}

	masters, workers := kube.CountNodes(nodes)
	cluster.MasterNodes = masters
	cluster.WorkerNodes = workers
	cluster.Status = "active"
	cluster.UpdatedAt = time.Now().UTC()
	if err := s.db.UpdateCluster(cluster); err != nil {
		return nil, fmt.Errorf("failed to update cluster: %w", err)
	}

	if err := s.db.DeleteClusterNodes(cluster.ID); err != nil {
		return nil, fmt.Errorf("failed to clear node records: %w", err)
	}
	for _, node := range nodes {
		nodeType := "worker"
		if node.IsMaster() {
			nodeType = "master"
		}
		record := &models.ClusterNode{
			ID:        uuid.New().String(),
			ClusterID: cluster.ID,
			NodeType:  nodeType,
			Hostname:  node.Name,
			IPAddress: sql.NullString{String: node.IPAddress, Valid: node.IPAddress != ""},
			Status:    node.Status,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.db.CreateClusterNode(record); err != nil {
			return nil, fmt.Errorf("failed to record node: %w", err)
		}
	}
	return nodes, nil
}

// Health reports the cluster health derived from node readiness
func (s *ClusterService) Health(ctx context.Context, id, userID string) (string, error) {
	nodes, err := s.RefreshNodes(ctx, id, userID)
	if err != nil {
		return "unknown", err
	}
	return kube.HealthStatus(nodes), nil
}

// ValidateAuthData checks kubeconfig or token auth data without storing it
func (s *ClusterService) ValidateAuthData(content, authType string) kube.ValidationResult {
	return kube.ValidateAuthData(content, authType)
}
