package service

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInventoryContent = `[webservers]
web1.example.com ansible_host=10.0.0.1
web2.example.com ansible_host=10.0.0.2

[databases]
db1.example.com
`

func TestInventoryCRUD(t *testing.T) {
	env := setupTestEnv(t)
	userID := env.admin.ID

	t.Run("Create with defaults", func(t *testing.T) {
		inv, err := env.inventories.CreateInventory(userID, &CreateInventoryRequest{
			Name:    "production",
			Content: testInventoryContent,
		})
		require.NoError(t, err)
		assert.Equal(t, "static", inv.InventoryType)
		assert.Equal(t, "{}", inv.Variables)
	})

	t.Run("Unparseable static content is rejected", func(t *testing.T) {
		_, err := env.inventories.CreateInventory(userID, &CreateInventoryRequest{
			Name:    "broken",
			Content: "no groups here",
		})
		assert.ErrorContains(t, err, "not a valid INI inventory")

		_, err = env.inventories.CreateInventory(userID, &CreateInventoryRequest{
			Name: "empty",
		})
		assert.ErrorContains(t, err, "not a valid INI inventory")
	})

	t.Run("Dynamic content is not INI-checked", func(t *testing.T) {
		_, err := env.inventories.CreateInventory(userID, &CreateInventoryRequest{
			Name:          "dynamic",
			InventoryType: "dynamic",
			Content:       "#!/usr/bin/env python3\nprint('{}')",
		})
		assert.NoError(t, err)
	})

	t.Run("Duplicate name is rejected", func(t *testing.T) {
		_, err := env.inventories.CreateInventory(userID, &CreateInventoryRequest{
			Name:    "production",
			Content: testInventoryContent,
		})
		assert.ErrorContains(t, err, "already exists")
	})

	t.Run("Same name allowed for a different user", func(t *testing.T) {
		other, err := env.users.CreateUser(&CreateUserRequest{
			Username: "other",
			Email:    "other@example.com",
			Password: "password1",
			Role:     "ansible_operator",
		})
		require.NoError(t, err)

		_, err = env.inventories.CreateInventory(other.ID, &CreateInventoryRequest{
			Name:    "production",
			Content: testInventoryContent,
		})
		assert.NoError(t, err)
	})

	t.Run("Get enforces ownership", func(t *testing.T) {
		inv, err := env.inventories.CreateInventory(userID, &CreateInventoryRequest{
			Name:    "staging",
			Content: testInventoryContent,
		})
		require.NoError(t, err)

		_, err = env.inventories.GetInventory(inv.ID, "someone-else")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("Update applies partial changes", func(t *testing.T) {
		inv, err := env.inventories.CreateInventory(userID, &CreateInventoryRequest{
			Name:    "lab",
			Content: testInventoryContent,
		})
		require.NoError(t, err)

		desc := "lab environment"
		updated, err := env.inventories.UpdateInventory(inv.ID, userID, &UpdateInventoryRequest{
			Description: &desc,
		})
		require.NoError(t, err)
		assert.Equal(t, "lab environment", updated.Description)
		assert.Equal(t, "lab", updated.Name)
	})

	t.Run("Rename to taken name is rejected", func(t *testing.T) {
		inv, err := env.inventories.CreateInventory(userID, &CreateInventoryRequest{
			Name:    "rename-me",
			Content: testInventoryContent,
		})
		require.NoError(t, err)

		name := "production"
		_, err = env.inventories.UpdateInventory(inv.ID, userID, &UpdateInventoryRequest{Name: &name})
		assert.ErrorContains(t, err, "already exists")
	})

	t.Run("Delete removes the inventory", func(t *testing.T) {
		inv, err := env.inventories.CreateInventory(userID, &CreateInventoryRequest{
			Name:    "to-delete",
			Content: testInventoryContent,
		})
		require.NoError(t, err)

		require.NoError(t, env.inventories.DeleteInventory(inv.ID, userID))
		_, err = env.inventories.GetInventory(inv.ID, userID)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestValidateContent(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name    string
		content string
		valid   bool
	}{
		{"Group with hosts", testInventoryContent, true},
		{"Group with key=value", "[all:vars]\nansible_user=root", true},
		{"Empty content", "", false},
		{"Only comments", "# nothing here\n# still nothing", false},
		{"Group without hosts", "[webservers]", false},
		{"Host before any group", "web1.example.com\n[webservers]", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, env.inventories.ValidateContent(tt.content))
		})
	}
}
