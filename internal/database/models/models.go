// Package models defines the data structures for database entities in the
// Ansible Platform. It covers users, SSH keys, credentials, inventories,
// playbooks, Kubernetes clusters with their nodes, and job executions.
package models

import (
	"database/sql"
	"time"
)

// User roles
const (
	RoleAdmin           = "admin"
	RoleKubernetesAdmin = "kubernetes_admin"
	RoleAnsibleOperator = "ansible_operator"
	RoleViewer          = "viewer"
)

// Cluster lifecycle statuses
const (
	ClusterStatusPending    = "pending"
	ClusterStatusCreating   = "creating"
	ClusterStatusRegistered = "registered"
	ClusterStatusActive     = "active"
	ClusterStatusFailed     = "failed"
)

// Job execution statuses
const (
	ExecutionStatusRunning   = "running"
	ExecutionStatusSuccess   = "success"
	ExecutionStatusFailed    = "failed"
	ExecutionStatusCancelled = "cancelled"
)

// User represents a platform user
type User struct {
	ID           string       `db:"id" json:"id"`
	Username     string       `db:"username" json:"username"`
	Email        string       `db:"email" json:"email"`
	PasswordHash string       `db:"password_hash" json:"-"`
	Role         string       `db:"role" json:"role"`
	IsActive     bool         `db:"is_active" json:"is_active"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
	LastLogin    sql.NullTime `db:"last_login" json:"last_login"`
}

// SSHKey represents an SSH key pair owned by a user. PrivateKeyEnc and
// PassphraseEnc hold AES-GCM ciphertext, never plaintext.
type SSHKey struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Name          string    `db:"name" json:"name"`
	PrivateKeyEnc []byte    `db:"private_key_enc" json:"-"`
	PublicKey     string    `db:"public_key" json:"public_key"`
	PassphraseEnc []byte    `db:"passphrase_enc" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Credential represents a generic username/password credential owned by a
// user. UsernameEnc and PasswordEnc hold AES-GCM ciphertext.
type Credential struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	Name           string    `db:"name" json:"name"`
	UsernameEnc    []byte    `db:"username_enc" json:"-"`
	PasswordEnc    []byte    `db:"password_enc" json:"-"`
	CredentialType string    `db:"credential_type" json:"credential_type"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Inventory represents an Ansible inventory owned by a user
type Inventory struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description"`
	InventoryType string    `db:"inventory_type" json:"inventory_type"` // "static" or "dynamic"
	Content       string    `db:"content" json:"content"`
	Variables     string    `db:"variables" json:"variables"` // JSON object
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Playbook represents an Ansible playbook owned by a user
type Playbook struct {
	ID              string         `db:"id" json:"id"`
	UserID          string         `db:"user_id" json:"user_id"`
	Name            string         `db:"name" json:"name"`
	Description     string         `db:"description" json:"description"`
	Content         string         `db:"content" json:"content"`
	PlaybookType    string         `db:"playbook_type" json:"playbook_type"`
	RepositoryURL   sql.NullString `db:"repository_url" json:"repository_url"`
	LocalPath       sql.NullString `db:"local_path" json:"local_path"`
	VariablesSchema string         `db:"variables_schema" json:"variables_schema"` // JSON object
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// KubernetesCluster represents a registered or provisioned Kubernetes cluster.
// KubeconfigEnc holds the AES-GCM encrypted kubeconfig (or bearer token).
type KubernetesCluster struct {
	ID            string         `db:"id" json:"id"`
	UserID        string         `db:"user_id" json:"user_id"`
	Name          string         `db:"name" json:"name"`
	ClusterType   string         `db:"cluster_type" json:"cluster_type"` // "new" or "existing"
	AuthType      string         `db:"auth_type" json:"auth_type"`       // "kubeconfig" or "token"
	MasterNodes   int            `db:"master_nodes" json:"master_nodes"`
	WorkerNodes   int            `db:"worker_nodes" json:"worker_nodes"`
	APIServer     sql.NullString `db:"api_server" json:"api_server"`
	KubeconfigEnc []byte         `db:"kubeconfig_enc" json:"-"`
	Status        string         `db:"status" json:"status"`
	Description   string         `db:"description" json:"description"`
	InventoryID   sql.NullString `db:"inventory_id" json:"inventory_id"`
	PlaybookID    sql.NullString `db:"playbook_id" json:"playbook_id"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// ClusterNode represents a node belonging to a cluster
type ClusterNode struct {
	ID        string         `db:"id" json:"id"`
	ClusterID string         `db:"cluster_id" json:"cluster_id"`
	NodeType  string         `db:"node_type" json:"node_type"` // "master" or "worker"
	Hostname  string         `db:"hostname" json:"hostname"`
	IPAddress sql.NullString `db:"ip_address" json:"ip_address"`
	Status    string         `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// JobExecution represents a single playbook run
type JobExecution struct {
	ID           string         `db:"id" json:"id"`
	UserID       string         `db:"user_id" json:"user_id"`
	PlaybookID   sql.NullString `db:"playbook_id" json:"playbook_id"`
	InventoryID  sql.NullString `db:"inventory_id" json:"inventory_id"`
	Status       string         `db:"status" json:"status"`
	Output       string         `db:"output" json:"output"`
	StartedAt    time.Time      `db:"started_at" json:"started_at"`
	CompletedAt  sql.NullTime   `db:"completed_at" json:"completed_at"`
	ErrorMessage string         `db:"error_message" json:"error_message"`
}
