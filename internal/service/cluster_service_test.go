package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKubeconfig = `apiVersion: v1
kind: Config
current-context: prod-context
clusters:
- name: prod
  cluster:
    server: https://10.0.0.1:6443
contexts:
- name: prod-context
  context:
    cluster: prod
    user: admin
users:
- name: admin
  user:
    token: abc
`

func TestRegisterExistingCluster(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.admin.ID

	t.Run("Registers kubeconfig cluster", func(t *testing.T) {
		cluster, err := env.clusters.RegisterExistingCluster(ctx, userID, &RegisterClusterRequest{
			Name:     "prod",
			AuthType: "kubeconfig",
			AuthData: testKubeconfig,
		})
		require.NoError(t, err)

		assert.Equal(t, "existing", cluster.ClusterType)
		assert.Equal(t, "https://10.0.0.1:6443", cluster.APIServer.String)
		assert.Equal(t, "Registered cluster: prod", cluster.Description)
		assert.NotEmpty(t, cluster.KubeconfigEnc)
		assert.NotContains(t, string(cluster.KubeconfigEnc), "apiVersion")
	})

	t.Run("Duplicate name is rejected", func(t *testing.T) {
		_, err := env.clusters.RegisterExistingCluster(ctx, userID, &RegisterClusterRequest{
			Name:     "prod",
			AuthType: "kubeconfig",
			AuthData: testKubeconfig,
		})
		assert.ErrorContains(t, err, "already exists")
	})

	t.Run("Token auth requires api_server", func(t *testing.T) {
		longToken := "eyJhbGciOiJSUzI1NiIsImtpZCI6ImFiYyJ9.part2part2part2part2.sig"
		_, err := env.clusters.RegisterExistingCluster(ctx, userID, &RegisterClusterRequest{
			Name:     "token-cluster",
			AuthType: "token",
			AuthData: longToken,
		})
		assert.ErrorContains(t, err, "api_server is required")

		cluster, err := env.clusters.RegisterExistingCluster(ctx, userID, &RegisterClusterRequest{
			Name:      "token-cluster",
			AuthType:  "token",
			AuthData:  longToken,
			APIServer: "https://10.0.0.2:6443",
		})
		require.NoError(t, err)
		assert.Equal(t, "token", cluster.AuthType)
	})

	t.Run("Invalid auth data is rejected", func(t *testing.T) {
		_, err := env.clusters.RegisterExistingCluster(ctx, userID, &RegisterClusterRequest{
			Name:     "bad",
			AuthType: "kubeconfig",
			AuthData: "kind: Config\n",
		})
		assert.ErrorContains(t, err, "invalid authentication data")
	})
}

func TestCreateCluster(t *testing.T) {
	env := setupTestEnv(t)
	userID := env.admin.ID

	cluster, err := env.clusters.CreateCluster(userID, &CreateClusterRequest{
		Name:        "new-cluster",
		WorkerNodes: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "creating", cluster.Status)
	assert.Equal(t, "new", cluster.ClusterType)
	assert.Equal(t, 1, cluster.MasterNodes)
	assert.Equal(t, 3, cluster.WorkerNodes)
}

func TestClusterAccess(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.admin.ID

	cluster, err := env.clusters.RegisterExistingCluster(ctx, userID, &RegisterClusterRequest{
		Name:     "prod",
		AuthType: "kubeconfig",
		AuthData: testKubeconfig,
	})
	require.NoError(t, err)

	t.Run("Kubeconfig round-trips through encryption", func(t *testing.T) {
		kubeconfig, err := env.clusters.GetKubeconfig(cluster.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, testKubeconfig, string(kubeconfig))
	})

	t.Run("Ownership is enforced", func(t *testing.T) {
		_, err := env.clusters.GetCluster(cluster.ID, "someone-else")
		assert.ErrorIs(t, err, sql.ErrNoRows)

		_, err = env.clusters.GetKubeconfig(cluster.ID, "someone-else")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("Status update", func(t *testing.T) {
		updated, err := env.clusters.UpdateStatus(cluster.ID, userID, "failed")
		require.NoError(t, err)
		assert.Equal(t, "failed", updated.Status)
	})

	t.Run("Partial update", func(t *testing.T) {
		description := "primary cluster"
		updated, err := env.clusters.UpdateCluster(cluster.ID, userID, &UpdateClusterRequest{
			Description: &description,
		})
		require.NoError(t, err)
		assert.Equal(t, "primary cluster", updated.Description)
		assert.Equal(t, "prod", updated.Name)
	})

	t.Run("Rename collision rejected", func(t *testing.T) {
		_, err := env.clusters.RegisterExistingCluster(ctx, userID, &RegisterClusterRequest{
			Name:     "staging",
			AuthType: "kubeconfig",
			AuthData: testKubeconfig,
		})
		require.NoError(t, err)

		name := "staging"
		_, err = env.clusters.UpdateCluster(cluster.ID, userID, &UpdateClusterRequest{Name: &name})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("Unreachable cluster returns stored counts", func(t *testing.T) {
		summary, err := env.clusters.GetNodeSummary(ctx, cluster.ID, userID)
		require.Error(t, err)
		require.NotNil(t, summary)
		assert.Equal(t, "unknown", summary.Health)
		assert.Equal(t, cluster.Name, summary.ClusterName)
	})

	t.Run("Delete removes the cluster", func(t *testing.T) {
		require.NoError(t, env.clusters.DeleteCluster(cluster.ID, userID))
		_, err := env.clusters.GetCluster(cluster.ID, userID)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestValidateAuthDataPassthrough(t *testing.T) {
	env := setupTestEnv(t)

	result := env.clusters.ValidateAuthData(testKubeconfig, "kubeconfig")
	assert.True(t, result.Valid)
	assert.Equal(t, "https://10.0.0.1:6443", result.APIServer)

	result = env.clusters.ValidateAuthData("short", "token")
	assert.False(t, result.Valid)
}
