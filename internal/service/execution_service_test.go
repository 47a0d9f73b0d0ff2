package service

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/CloudSihmar/ansible-platform/internal/ansible"
	"github.com/CloudSihmar/ansible-platform/internal/database/models"
)

func setupExecutionEnv(t *testing.T, script string) (*testEnv, *ExecutionService) {
	t.Helper()

	env := setupTestEnv(t)
	env.cfg.Ansible.BinaryPath = fakeAnsible(t, script)

	runner := ansible.NewRunner(env.cfg, zap.NewNop())
	executions := NewExecutionService(env.db, runner, env.playbooks, env.inventories, env.credentials, zap.NewNop())
	return env, executions
}

func createExecutionFixtures(t *testing.T, env *testEnv) (*models.Playbook, *models.Inventory) {
	t.Helper()

	pb, err := env.playbooks.CreatePlaybook(env.admin.ID, &CreatePlaybookRequest{
		Name:    "ping",
		Content: testPlaybookContent,
	})
	require.NoError(t, err)

	inv, err := env.inventories.CreateInventory(env.admin.ID, &CreateInventoryRequest{
		Name:    "production",
		Content: testInventoryContent,
	})
	require.NoError(t, err)
	return pb, inv
}

func waitForCompletion(t *testing.T, executions *ExecutionService, id, userID string) *models.JobExecution {
	t.Helper()

	var exec *models.JobExecution
	require.Eventually(t, func() bool {
		var err error
		exec, err = executions.GetExecution(id, userID)
		return err == nil && exec.Status != "running"
	}, 5*time.Second, 50*time.Millisecond)
	return exec
}

func TestExecutePlaybook(t *testing.T) {
	env, executions := setupExecutionEnv(t, `echo "PLAY RECAP: ok=2 failed=0"`)
	pb, inv := createExecutionFixtures(t, env)

	exec, err := executions.Execute(env.admin.ID, &ExecuteRequest{
		PlaybookID:  pb.ID,
		InventoryID: inv.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "running", exec.Status)

	done := waitForCompletion(t, executions, exec.ID, env.admin.ID)
	assert.Equal(t, "success", done.Status)
	assert.Contains(t, done.Output, "PLAY RECAP")
	assert.True(t, done.CompletedAt.Valid)
	assert.Empty(t, done.ErrorMessage)
}

func TestExecutePlaybookWithTags(t *testing.T) {
	env, executions := setupExecutionEnv(t, `echo "args: $@"`)
	pb, inv := createExecutionFixtures(t, env)

	exec, err := executions.Execute(env.admin.ID, &ExecuteRequest{
		PlaybookID:  pb.ID,
		InventoryID: inv.ID,
		Tags:        []string{"setup", "deploy"},
		SkipTags:    []string{"debug"},
	})
	require.NoError(t, err)

	done := waitForCompletion(t, executions, exec.ID, env.admin.ID)
	assert.Equal(t, "success", done.Status)
	assert.Contains(t, done.Output, "--tags setup,deploy")
	assert.Contains(t, done.Output, "--skip-tags debug")
}

func TestExecutePlaybookFailure(t *testing.T) {
	env, executions := setupExecutionEnv(t, `echo "unreachable" >&2; exit 4`)
	pb, inv := createExecutionFixtures(t, env)

	exec, err := executions.Execute(env.admin.ID, &ExecuteRequest{
		PlaybookID:  pb.ID,
		InventoryID: inv.ID,
	})
	require.NoError(t, err)

	done := waitForCompletion(t, executions, exec.ID, env.admin.ID)
	assert.Equal(t, "failed", done.Status)
	assert.Contains(t, done.ErrorMessage, "unreachable")
}

func TestExecutePlaybookWithSSHKey(t *testing.T) {
	env, executions := setupExecutionEnv(t, `echo "args: $@"`)
	pb, inv := createExecutionFixtures(t, env)

	_, err := env.credentials.CreateSSHKey(env.admin.ID, &CreateSSHKeyRequest{
		Name:       "deploy-key",
		PrivateKey: testPrivateKey(t),
	})
	require.NoError(t, err)

	exec, err := executions.Execute(env.admin.ID, &ExecuteRequest{
		PlaybookID:  pb.ID,
		InventoryID: inv.ID,
	})
	require.NoError(t, err)

	done := waitForCompletion(t, executions, exec.ID, env.admin.ID)
	assert.Equal(t, "success", done.Status)
	assert.Contains(t, done.Output, "--private-key")
}

func TestExecuteOwnershipChecks(t *testing.T) {
	env, executions := setupExecutionEnv(t, `exit 0`)
	pb, inv := createExecutionFixtures(t, env)

	other, err := env.users.CreateUser(&CreateUserRequest{
		Username: "other",
		Email:    "other@example.com",
		Password: "password1",
		Role:     "ansible_operator",
	})
	require.NoError(t, err)

	_, err = executions.Execute(other.ID, &ExecuteRequest{
		PlaybookID:  pb.ID,
		InventoryID: inv.ID,
	})
	assert.ErrorContains(t, err, "playbook not found")

	otherPb, err := env.playbooks.CreatePlaybook(other.ID, &CreatePlaybookRequest{
		Name:    "ping",
		Content: testPlaybookContent,
	})
	require.NoError(t, err)

	_, err = executions.Execute(other.ID, &ExecuteRequest{
		PlaybookID:  otherPb.ID,
		InventoryID: inv.ID,
	})
	assert.ErrorContains(t, err, "inventory not found")
}

func TestExecutionStats(t *testing.T) {
	env, executions := setupExecutionEnv(t, `exit 0`)
	pb, inv := createExecutionFixtures(t, env)
	userID := env.admin.ID

	t.Run("Empty history", func(t *testing.T) {
		stats, err := executions.Stats(userID)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Total)
		assert.Nil(t, stats.AverageDuration)
	})

	t.Run("Counts by status", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			exec, err := executions.Execute(userID, &ExecuteRequest{
				PlaybookID:  pb.ID,
				InventoryID: inv.ID,
			})
			require.NoError(t, err)
			waitForCompletion(t, executions, exec.ID, userID)
		}

		failed, err := executions.Execute(userID, &ExecuteRequest{
			PlaybookID:  pb.ID,
			InventoryID: inv.ID,
		})
		require.NoError(t, err)
		waitForCompletion(t, executions, failed.ID, userID)
		require.NoError(t, executions.Complete(failed.ID, "failed", "", "boom"))

		stats, err := executions.Stats(userID)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, 2, stats.Successful)
		assert.Equal(t, 1, stats.Failed)
		assert.Equal(t, 0, stats.Running)
		require.NotNil(t, stats.AverageDuration)
		assert.GreaterOrEqual(t, *stats.AverageDuration, 0.0)
	})
}

func TestUpdateExecution(t *testing.T) {
	env, executions := setupExecutionEnv(t, `exit 0`)
	pb, inv := createExecutionFixtures(t, env)
	userID := env.admin.ID

	exec, err := executions.Execute(userID, &ExecuteRequest{
		PlaybookID:  pb.ID,
		InventoryID: inv.ID,
	})
	require.NoError(t, err)
	waitForCompletion(t, executions, exec.ID, userID)

	t.Run("Partial fields", func(t *testing.T) {
		status := "failed"
		message := "cancelled by operator"
		updated, err := executions.UpdateExecution(exec.ID, userID, &UpdateExecutionRequest{
			Status:       &status,
			ErrorMessage: &message,
		})
		require.NoError(t, err)
		assert.Equal(t, "failed", updated.Status)
		assert.Equal(t, "cancelled by operator", updated.ErrorMessage)
		assert.True(t, updated.CompletedAt.Valid)
	})

	t.Run("Output only leaves status alone", func(t *testing.T) {
		output := "captured log"
		updated, err := executions.UpdateExecution(exec.ID, userID, &UpdateExecutionRequest{
			Output: &output,
		})
		require.NoError(t, err)
		assert.Equal(t, "failed", updated.Status)
		assert.Equal(t, "captured log", updated.Output)
	})

	t.Run("Ownership enforced", func(t *testing.T) {
		status := "success"
		_, err := executions.UpdateExecution(exec.ID, "someone-else", &UpdateExecutionRequest{
			Status: &status,
		})
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestListExecutions(t *testing.T) {
	env, executions := setupExecutionEnv(t, `exit 0`)
	pb, inv := createExecutionFixtures(t, env)
	userID := env.admin.ID

	for i := 0; i < 3; i++ {
		exec, err := executions.Execute(userID, &ExecuteRequest{
			PlaybookID:  pb.ID,
			InventoryID: inv.ID,
		})
		require.NoError(t, err)
		waitForCompletion(t, executions, exec.ID, userID)
	}

	t.Run("Limit is honored", func(t *testing.T) {
		list, err := executions.ListExecutions(userID, 2)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("Zero limit defaults", func(t *testing.T) {
		list, err := executions.ListExecutions(userID, 0)
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})

	t.Run("Per playbook", func(t *testing.T) {
		list, err := executions.ListPlaybookExecutions(pb.ID, userID)
		require.NoError(t, err)
		assert.Len(t, list, 3)

		_, err = executions.ListPlaybookExecutions(pb.ID, "someone-else")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("Delete", func(t *testing.T) {
		list, err := executions.ListExecutions(userID, 1)
		require.NoError(t, err)
		require.Len(t, list, 1)

		require.NoError(t, executions.DeleteExecution(list[0].ID, userID))
		_, err = executions.GetExecution(list[0].ID, userID)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}
