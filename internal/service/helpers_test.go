package service

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/CloudSihmar/ansible-platform/internal/config"
	"github.com/CloudSihmar/ansible-platform/internal/database"
	"github.com/CloudSihmar/ansible-platform/internal/database/models"
)

type testEnv struct {
	db          *database.Database
	cfg         *config.Config
	users       *UserService
	inventories *InventoryService
	playbooks   *PlaybookService
	credentials *CredentialService
	clusters    *ClusterService
	admin       *models.User
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Type: "sqlite",
			SQLite: config.SQLiteConfig{
				Path: filepath.Join(t.TempDir(), "test.db"),
			},
		},
		JWT: config.JWTConfig{
			Secret:     "test-secret-for-service-tests",
			Expiration: time.Hour,
			Issuer:     "ansible-platform-test",
		},
		Ansible: config.AnsibleConfig{
			BinaryPath: "ansible-playbook",
			WorkDir:    t.TempDir(),
			Timeout:    time.Minute,
		},
		Kube: config.KubeConfig{
			RequestTimeout: time.Second,
		},
	}

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	logger := zap.NewNop()
	users := NewUserService(db, cfg)

	resp, err := users.PerformInitialSetup(&SetupRequest{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "adminpass1",
	})
	require.NoError(t, err)

	credentials := NewCredentialService(db, users)
	return &testEnv{
		db:          db,
		cfg:         cfg,
		users:       users,
		inventories: NewInventoryService(db),
		playbooks:   NewPlaybookService(db),
		credentials: credentials,
		clusters:    NewClusterService(db, cfg, users, logger),
		admin:       resp.User,
	}
}

// testPrivateKey generates an unencrypted ed25519 private key in OpenSSH
// PEM format
func testPrivateKey(t *testing.T) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	return string(pem.EncodeToMemory(block))
}

// fakeAnsible writes an executable shell script standing in for
// ansible-playbook
func fakeAnsible(t *testing.T, script string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ansible-playbook")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}
