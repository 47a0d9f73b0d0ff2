// Package database provides database connection management, migrations, and
// data access methods for the Ansible Platform.
package database

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/CloudSihmar/ansible-platform/internal/config"
	"github.com/CloudSihmar/ansible-platform/internal/database/models"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Database represents the database connection and operations
type Database struct {
	db     *sql.DB
	dbType string
}

// New creates a new database connection
func New(cfg *config.Config) (*Database, error) {
	var db *sql.DB
	var err error

	switch cfg.Database.Type {
	case "sqlite":
		db, err = sql.Open("sqlite3", cfg.Database.SQLite.Path+"?_foreign_keys=on")
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		// SQLite only allows one writer at a time
		db.SetMaxOpenConns(1)
	case "postgres":
		db, err = sql.Open("postgres", cfg.GetDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.Postgres.MaxIdleConns)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		db:     db,
		dbType: cfg.Database.Type,
	}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// DB exposes the underlying connection (used in tests)
func (d *Database) DB() *sql.DB {
	return d.db
}

// rebind converts `?` placeholders to `$n` for PostgreSQL
func (d *Database) rebind(query string) string {
	if d.dbType != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate runs database migrations
func (d *Database) Migrate() error {
	var migrationFiles []string
	if d.dbType == "postgres" {
		migrationFiles = []string{
			"migrations/000001_init_schema.postgres.up.sql",
		}
	} else {
		migrationFiles = []string{
			"migrations/000001_init_schema.up.sql",
		}
	}

	for _, migrationFile := range migrationFiles {
		content, err := migrationsFS.ReadFile(migrationFile)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", migrationFile, err)
		}

		// Remove comments and split into statements
		var statements []string
		var currentStmt strings.Builder
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "--") || line == "" {
				continue
			}
			currentStmt.WriteString(line)
			currentStmt.WriteString(" ")
			if strings.HasSuffix(line, ";") {
				statements = append(statements, currentStmt.String())
				currentStmt.Reset()
			}
		}

		for _, stmt := range statements {
			if _, err := d.db.Exec(stmt); err != nil {
				return fmt.Errorf("failed to execute migration statement: %w", err)
			}
		}
	}

	return nil
}

// User operations

// CreateUser creates a new user
func (d *Database) CreateUser(user *models.User) error {
	query := d.rebind(`INSERT INTO users
	          (id, username, email, password_hash, role, is_active, created_at, updated_at, last_login)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := d.db.Exec(query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role,
		user.IsActive, user.CreatedAt, user.UpdatedAt, user.LastLogin,
	)
	return err
}

const userColumns = `id, username, email, password_hash, role, is_active, created_at, updated_at, last_login`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt, &user.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser retrieves a user by ID
func (d *Database) GetUser(id string) (*models.User, error) {
	query := d.rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	return scanUser(d.db.QueryRow(query, id))
}

// GetUserByUsername retrieves a user by username
func (d *Database) GetUserByUsername(username string) (*models.User, error) {
	query := d.rebind(`SELECT ` + userColumns + ` FROM users WHERE username = ?`)
	return scanUser(d.db.QueryRow(query, username))
}

// GetUserByEmail retrieves a user by email
func (d *Database) GetUserByEmail(email string) (*models.User, error) {
	query := d.rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	return scanUser(d.db.QueryRow(query, email))
}

// ListActiveUsers retrieves all active users
func (d *Database) ListActiveUsers() ([]*models.User, error) {
	query := d.rebind(`SELECT ` + userColumns + ` FROM users WHERE is_active = ? ORDER BY created_at`)

	rows, err := d.db.Query(query, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUser updates a user's mutable fields
func (d *Database) UpdateUser(user *models.User) error {
	query := d.rebind(`UPDATE users SET username = ?, email = ?, password_hash = ?, role = ?,
	          is_active = ?, updated_at = ?, last_login = ? WHERE id = ?`)

	result, err := d.db.Exec(query,
		user.Username, user.Email, user.PasswordHash, user.Role,
		user.IsActive, user.UpdatedAt, user.LastLogin, user.ID,
	)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// TouchLastLogin records a successful login
func (d *Database) TouchLastLogin(id string, at time.Time) error {
	query := d.rebind(`UPDATE users SET last_login = ? WHERE id = ?`)
	_, err := d.db.Exec(query, at, id)
	return err
}

// DeleteUser removes a user; owned rows cascade at the schema level
func (d *Database) DeleteUser(id string) error {
	query := d.rebind(`DELETE FROM users WHERE id = ?`)
	result, err := d.db.Exec(query, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// SSH key operations

// CreateSSHKey creates a new SSH key
func (d *Database) CreateSSHKey(key *models.SSHKey) error {
	query := d.rebind(`INSERT INTO ssh_keys
	          (id, user_id, name, private_key_enc, public_key, passphrase_enc, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := d.db.Exec(query,
		key.ID, key.UserID, key.Name, key.PrivateKeyEnc, key.PublicKey,
		key.PassphraseEnc, key.CreatedAt,
	)
	return err
}

const sshKeyColumns = `id, user_id, name, private_key_enc, public_key, passphrase_enc, created_at`

func scanSSHKey(row interface{ Scan(...any) error }) (*models.SSHKey, error) {
	var key models.SSHKey
	err := row.Scan(
		&key.ID, &key.UserID, &key.Name, &key.PrivateKeyEnc, &key.PublicKey,
		&key.PassphraseEnc, &key.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// GetSSHKey retrieves an SSH key by ID
func (d *Database) GetSSHKey(id string) (*models.SSHKey, error) {
	query := d.rebind(`SELECT ` + sshKeyColumns + ` FROM ssh_keys WHERE id = ?`)
	return scanSSHKey(d.db.QueryRow(query, id))
}

// GetSSHKeyByName retrieves a user's SSH key by name
func (d *Database) GetSSHKeyByName(userID, name string) (*models.SSHKey, error) {
	query := d.rebind(`SELECT ` + sshKeyColumns + ` FROM ssh_keys WHERE user_id = ? AND name = ?`)
	return scanSSHKey(d.db.QueryRow(query, userID, name))
}

// ListSSHKeys retrieves all SSH keys owned by a user
func (d *Database) ListSSHKeys(userID string) ([]*models.SSHKey, error) {
	query := d.rebind(`SELECT ` + sshKeyColumns + ` FROM ssh_keys WHERE user_id = ? ORDER BY created_at DESC`)

	rows, err := d.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []*models.SSHKey{}
	for rows.Next() {
		key, err := scanSSHKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// DeleteSSHKey deletes an SSH key by ID
func (d *Database) DeleteSSHKey(id string) error {
	query := d.rebind(`DELETE FROM ssh_keys WHERE id = ?`)
	result, err := d.db.Exec(query, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// Credential operations

// CreateCredential creates a new credential
func (d *Database) CreateCredential(cred *models.Credential) error {
	query := d.rebind(`INSERT INTO credentials
	          (id, user_id, name, username_enc, password_enc, credential_type, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := d.db.Exec(query,
		cred.ID, cred.UserID, cred.Name, cred.UsernameEnc, cred.PasswordEnc,
		cred.CredentialType, cred.CreatedAt,
	)
	return err
}

const credentialColumns = `id, user_id, name, username_enc, password_enc, credential_type, created_at`

func scanCredential(row interface{ Scan(...any) error }) (*models.Credential, error) {
	var cred models.Credential
	err := row.Scan(
		&cred.ID, &cred.UserID, &cred.Name, &cred.UsernameEnc, &cred.PasswordEnc,
		&cred.CredentialType, &cred.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// GetCredential retrieves a credential by ID
func (d *Database) GetCredential(id string) (*models.Credential, error) {
	query := d.rebind(`SELECT ` + credentialColumns + ` FROM credentials WHERE id = ?`)
	return scanCredential(d.db.QueryRow(query, id))
}

// GetCredentialByName retrieves a user's credential by name
func (d *Database) GetCredentialByName(userID, name string) (*models.Credential, error) {
	query := d.rebind(`SELECT ` + credentialColumns + ` FROM credentials WHERE user_id = ? AND name = ?`)
	return scanCredential(d.db.QueryRow(query, userID, name))
}

// ListCredentials retrieves all credentials owned by a user
func (d *Database) ListCredentials(userID string) ([]*models.Credential, error) {
	query := d.rebind(`SELECT ` + credentialColumns + ` FROM credentials WHERE user_id = ? ORDER BY created_at DESC`)

	rows, err := d.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	creds := []*models.Credential{}
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

// DeleteCredential deletes a credential by ID
func (d *Database) DeleteCredential(id string) error {
	query := d.rebind(`DELETE FROM credentials WHERE id = ?`)
	result, err := d.db.Exec(query, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// Inventory operations

// CreateInventory creates a new inventory
func (d *Database) CreateInventory(inv *models.Inventory) error {
	query := d.rebind(`INSERT INTO inventories
	          (id, user_id, name, description, inventory_type, content, variables, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := d.db.Exec(query,
		inv.ID, inv.UserID, inv.Name, inv.Description, inv.InventoryType,
		inv.Content, inv.Variables, inv.CreatedAt, inv.UpdatedAt,
	)
	return err
}

const inventoryColumns = `id, user_id, name, description, inventory_type, content, variables, created_at, updated_at`

func scanInventory(row interface{ Scan(...any) error }) (*models.Inventory, error) {
	var inv models.Inventory
	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.Name, &inv.Description, &inv.InventoryType,
		&inv.Content, &inv.Variables, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetInventory retrieves an inventory by ID
func (d *Database) GetInventory(id string) (*models.Inventory, error) {
	query := d.rebind(`SELECT ` + inventoryColumns + ` FROM inventories WHERE id = ?`)
	return scanInventory(d.db.QueryRow(query, id))
}

// GetInventoryByName retrieves an inventory by owner and name
func (d *Database) GetInventoryByName(userID, name string) (*models.Inventory, error) {
	query := d.rebind(`SELECT ` + inventoryColumns + ` FROM inventories WHERE user_id = ? AND name = ?`)
	return scanInventory(d.db.QueryRow(query, userID, name))
}

// ListInventories retrieves all inventories owned by a user
func (d *Database) ListInventories(userID string) ([]*models.Inventory, error) {
	query := d.rebind(`SELECT ` + inventoryColumns + ` FROM inventories WHERE user_id = ? ORDER BY created_at DESC`)

	rows, err := d.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inventories := []*models.Inventory{}
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		inventories = append(inventories, inv)
	}
	return inventories, rows.Err()
}

// UpdateInventory updates an inventory
func (d *Database) UpdateInventory(inv *models.Inventory) error {
	query := d.rebind(`UPDATE inventories SET name = ?, description = ?, inventory_type = ?,
	          content = ?, variables = ?, updated_at = ? WHERE id = ?`)

	result, err := d.db.Exec(query,
		inv.Name, inv.Description, inv.InventoryType, inv.Content,
		inv.Variables, inv.UpdatedAt, inv.ID,
	)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// DeleteInventory deletes an inventory; cluster and execution references
// are set to NULL at the schema level
func (d *Database) DeleteInventory(id string) error {
	query := d.rebind(`DELETE FROM inventories WHERE id = ?`)
	result, err := d.db.Exec(query, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// Playbook operations

// CreatePlaybook creates a new playbook
func (d *Database) CreatePlaybook(pb *models.Playbook) error {
	query := d.rebind(`INSERT INTO playbooks
	          (id, user_id, name, description, content, playbook_type, repository_url, local_path,
	           variables_schema, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := d.db.Exec(query,
		pb.ID, pb.UserID, pb.Name, pb.Description, pb.Content, pb.PlaybookType,
		pb.RepositoryURL, pb.LocalPath, pb.VariablesSchema, pb.CreatedAt, pb.UpdatedAt,
	)
	return err
}

const playbookColumns = `id, user_id, name, description, content, playbook_type, repository_url, local_path, variables_schema, created_at, updated_at`

func scanPlaybook(row interface{ Scan(...any) error }) (*models.Playbook, error) {
	var pb models.Playbook
	err := row.Scan(
		&pb.ID, &pb.UserID, &pb.Name, &pb.Description, &pb.Content, &pb.PlaybookType,
		&pb.RepositoryURL, &pb.LocalPath, &pb.VariablesSchema, &pb.CreatedAt, &pb.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pb, nil
}

// GetPlaybook retrieves a playbook by ID
func (d *Database) GetPlaybook(id string) (*models.Playbook, error) {
	query := d.rebind(`SELECT ` + playbookColumns + ` FROM playbooks WHERE id = ?`)
	return scanPlaybook(d.db.QueryRow(query, id))
}

// GetPlaybookByName retrieves a playbook by owner and name
func (d *Database) GetPlaybookByName(userID, name string) (*models.Playbook, error) {
	query := d.rebind(`SELECT ` + playbookColumns + ` FROM playbooks WHERE user_id = ? AND name = ?`)
	return scanPlaybook(d.db.QueryRow(query, userID, name))
}

// ListPlaybooks retrieves playbooks owned by a user, optionally filtered by type
func (d *Database) ListPlaybooks(userID, playbookType string) ([]*models.Playbook, error) {
	query := `SELECT ` + playbookColumns + ` FROM playbooks WHERE user_id = ?`
	args := []any{userID}
	if playbookType != "" {
		query += ` AND playbook_type = ?`
		args = append(args, playbookType)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := d.db.Query(d.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	playbooks := []*models.Playbook{}
	for rows.Next() {
		pb, err := scanPlaybook(rows)
		if err != nil {
			return nil, err
		}
		playbooks = append(playbooks, pb)
	}
	return playbooks, rows.Err()
}

// UpdatePlaybook updates a playbook
func (d *Database) UpdatePlaybook(pb *models.Playbook) error {
	query := d.rebind(`UPDATE playbooks SET name = ?, description = ?, content = ?, playbook_type = ?,
	          repository_url = ?, local_path = ?, variables_schema = ?, updated_at = ? WHERE id = ?`)

	result, err := d.db.Exec(query,
		pb.Name, pb.Description, pb.Content, pb.PlaybookType,
		pb.RepositoryURL, pb.LocalPath, pb.VariablesSchema, pb.UpdatedAt, pb.ID,
	)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// DeletePlaybook deletes a playbook; cluster and execution references
// are set to NULL at the schema level
func (d *Database) DeletePlaybook(id string) error {
	query := d.rebind(`DELETE FROM playbooks WHERE id = ?`)
	result, err := d.db.Exec(query, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// Cluster operations

// CreateCluster creates a new Kubernetes cluster record
func (d *Database) CreateCluster(cluster *models.KubernetesCluster) error {
	query := d.rebind(`INSERT INTO kubernetes_clusters
	          (id, user_id, name, cluster_type, auth_type, master_nodes, worker_nodes, api_server,
	           kubeconfig_enc, status, description, inventory_id, playbook_id, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := d.db.Exec(query,
		cluster.ID, cluster.UserID, cluster.Name, cluster.ClusterType, cluster.AuthType,
		cluster.MasterNodes, cluster.WorkerNodes, cluster.APIServer, cluster.KubeconfigEnc,
		cluster.Status, cluster.Description, cluster.InventoryID, cluster.PlaybookID,
		cluster.CreatedAt, cluster.UpdatedAt,
	)
	return err
}

const clusterColumns = `id, user_id, name, cluster_type, auth_type, master_nodes, worker_nodes, api_server, kubeconfig_enc, status, description, inventory_id, playbook_id, created_at, updated_at`

func scanCluster(row interface{ Scan(...any) error }) (*models.KubernetesCluster, error) {
	var cluster models.KubernetesCluster
	err := row.Scan(
		&cluster.ID, &cluster.UserID, &cluster.Name, &cluster.ClusterType, &cluster.AuthType,
		&cluster.MasterNodes, &cluster.WorkerNodes, &cluster.APIServer, &cluster.KubeconfigEnc,
		&cluster.Status, &cluster.Description, &cluster.InventoryID, &cluster.PlaybookID,
		&cluster.CreatedAt, &cluster.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cluster, nil
}

// GetCluster retrieves a cluster by ID
func (d *Database) GetCluster(id string) (*models.KubernetesCluster, error) {
	query := d.rebind(`SELECT ` + clusterColumns + ` FROM kubernetes_clusters WHERE id = ?`)
	return scanCluster(d.db.QueryRow(query, id))
}

// GetClusterByName retrieves a user's cluster by name
func (d *Database) GetClusterByName(userID, name string) (*models.KubernetesCluster, error) {
	query := d.rebind(`SELECT ` + clusterColumns + ` FROM kubernetes_clusters WHERE user_id = ? AND name = ?`)
	return scanCluster(d.db.QueryRow(query, userID, name))
}

// ListClusters retrieves all clusters owned by a user
func (d *Database) ListClusters(userID string) ([]*models.KubernetesCluster, error) {
	query := d.rebind(`SELECT ` + clusterColumns + ` FROM kubernetes_clusters WHERE user_id = ? ORDER BY created_at DESC`)

	rows, err := d.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clusters := []*models.KubernetesCluster{}
	for rows.Next() {
		cluster, err := scanCluster(rows)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, cluster)
	}
	return clusters, rows.Err()
}

// UpdateCluster updates a cluster's mutable fields
func (d *Database) UpdateCluster(cluster *models.KubernetesCluster) error {
	query := d.rebind(`UPDATE kubernetes_clusters SET name = ?, status = ?, description = ?,
	          master_nodes = ?, worker_nodes = ?, api_server = ?, kubeconfig_enc = ?, updated_at = ?
	          WHERE id = ?`)

	result, err := d.db.Exec(query,
		cluster.Name, cluster.Status, cluster.Description,
		cluster.MasterNodes, cluster.WorkerNodes, cluster.APIServer,
		cluster.KubeconfigEnc, cluster.UpdatedAt, cluster.ID,
	)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// DeleteCluster deletes a cluster; its nodes cascade at the schema level
func (d *Database) DeleteCluster(id string) error {
	query := d.rebind(`DELETE FROM kubernetes_clusters WHERE id = ?`)
	result, err := d.db.Exec(query, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// Cluster node operations

// CreateClusterNode creates a node row for a cluster
func (d *Database) CreateClusterNode(node *models.ClusterNode) error {
	query := d.rebind(`INSERT INTO cluster_nodes
	          (id, cluster_id, node_type, hostname, ip_address, status, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := d.db.Exec(query,
		node.ID, node.ClusterID, node.NodeType, node.Hostname,
		node.IPAddress, node.Status, node.CreatedAt,
	)
	return err
}

// ListClusterNodes retrieves all nodes belonging to a cluster
func (d *Database) ListClusterNodes(clusterID string) ([]*models.ClusterNode, error) {
	query := d.rebind(`SELECT id, cluster_id, node_type, hostname, ip_address, status, created_at
	          FROM cluster_nodes WHERE cluster_id = ? ORDER BY hostname`)

	rows, err := d.db.Query(query, clusterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nodes := []*models.ClusterNode{}
	for rows.Next() {
		var node models.ClusterNode
		err := rows.Scan(
			&node.ID, &node.ClusterID, &node.NodeType, &node.Hostname,
			&node.IPAddress, &node.Status, &node.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, &node)
	}
	return nodes, rows.Err()
}

// DeleteClusterNodes removes all node rows for a cluster (used on refresh)
func (d *Database) DeleteClusterNodes(clusterID string) error {
	query := d.rebind(`DELETE FROM cluster_nodes WHERE cluster_id = ?`)
	_, err := d.db.Exec(query, clusterID)
	return err
}

// Job execution operations

// CreateExecution creates a new job execution record
func (d *Database) CreateExecution(exec *models.JobExecution) error {
	query := d.rebind(`INSERT INTO job_executions
	          (id, user_id, playbook_id, inventory_id, status, output, started_at, completed_at, error_message)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := d.db.Exec(query,
		exec.ID, exec.UserID, exec.PlaybookID, exec.InventoryID, exec.Status,
		exec.Output, exec.StartedAt, exec.CompletedAt, exec.ErrorMessage,
	)
	return err
}

const executionColumns = `id, user_id, playbook_id, inventory_id, status, output, started_at, completed_at, error_message`

func scanExecution(row interface{ Scan(...any) error }) (*models.JobExecution, error) {
	var exec models.JobExecution
	err := row.Scan(
		&exec.ID, &exec.UserID, &exec.PlaybookID, &exec.InventoryID, &exec.Status,
		&exec.Output, &exec.StartedAt, &exec.CompletedAt, &exec.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	return &exec, nil
}

// GetExecution retrieves a job execution by ID
func (d *Database) GetExecution(id string) (*models.JobExecution, error) {
	query := d.rebind(`SELECT ` + executionColumns + ` FROM job_executions WHERE id = ?`)
	return scanExecution(d.db.QueryRow(query, id))
}

// ListExecutions retrieves a user's executions, newest first
func (d *Database) ListExecutions(userID string, limit int) ([]*models.JobExecution, error) {
	query := d.rebind(`SELECT ` + executionColumns + ` FROM job_executions
	          WHERE user_id = ? ORDER BY started_at DESC LIMIT ?`)

	rows, err := d.db.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	executions := []*models.JobExecution{}
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, exec)
	}
	return executions, rows.Err()
}

// ListPlaybookExecutions retrieves a user's executions of a specific playbook
func (d *Database) ListPlaybookExecutions(playbookID, userID string) ([]*models.JobExecution, error) {
	query := d.rebind(`SELECT ` + executionColumns + ` FROM job_executions
	          WHERE playbook_id = ? AND user_id = ? ORDER BY started_at DESC`)

	rows, err := d.db.Query(query, playbookID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	executions := []*models.JobExecution{}
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, exec)
	}
	return executions, rows.Err()
}

// UpdateExecution updates an execution's status, output and completion fields
func (d *Database) UpdateExecution(exec *models.JobExecution) error {
	query := d.rebind(`UPDATE job_executions SET status = ?, output = ?, completed_at = ?, error_message = ?
	          WHERE id = ?`)

	result, err := d.db.Exec(query,
		exec.Status, exec.Output, exec.CompletedAt, exec.ErrorMessage, exec.ID,
	)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// DeleteExecution deletes a job execution by ID
func (d *Database) DeleteExecution(id string) error {
	query := d.rebind(`DELETE FROM job_executions WHERE id = ?`)
	result, err := d.db.Exec(query, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// System config operations

// SetSystemConfig sets a system configuration value
func (d *Database) SetSystemConfig(key, value string) error {
	query := `INSERT OR REPLACE INTO system_config (key, value, updated_at) VALUES (?, ?, ?)`
	if d.dbType == "postgres" {
		query = `INSERT INTO system_config (key, value, updated_at)
		         VALUES ($1, $2, $3)
		         ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3`
	} else {
		query = d.rebind(query)
	}

	_, err := d.db.Exec(query, key, value, time.Now().UTC())
	return err
}

// GetSystemConfig retrieves a system configuration value
func (d *Database) GetSystemConfig(key string) (string, error) {
	query := d.rebind(`SELECT value FROM system_config WHERE key = ?`)

	var value string
	err := d.db.QueryRow(query, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// IsSetupComplete checks if initial setup has been completed
func (d *Database) IsSetupComplete() (bool, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func requireRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
