package auth

import "strings"

// allPermissions enumerates every permission the platform understands.
// Permissions are "resource:action" strings; the kubernetes cluster
// permissions carry an extra segment.
var allPermissions = []string{
	// User management
	"users:create",
	"users:read",
	"users:update",
	"users:delete",

	// Inventory management
	"inventory:create",
	"inventory:read",
	"inventory:update",
	"inventory:delete",

	// Playbook management
	"playbooks:create",
	"playbooks:read",
	"playbooks:update",
	"playbooks:delete",
	"playbooks:execute",

	// Kubernetes clusters
	"kubernetes:cluster:create",
	"kubernetes:cluster:read",
	"kubernetes:cluster:update",
	"kubernetes:cluster:delete",
	"kubernetes:cluster:register",

	// Credentials management
	"credentials:create",
	"credentials:read",
	"credentials:update",
	"credentials:delete",

	// Execution management
	"executions:read",
	"executions:update",
	"executions:delete",
}

// rolePermissions maps each role to its permission patterns. A pattern
// ending in ":*" grants every permission under that resource.
var rolePermissions = map[string][]string{
	"admin": {
		"users:*",
		"inventory:*",
		"playbooks:*",
		"kubernetes:*",
		"credentials:*",
		"executions:*",
	},
	"kubernetes_admin": {
		"inventory:create", "inventory:read", "inventory:update",
		"playbooks:create", "playbooks:read", "playbooks:execute",
		"kubernetes:*",
		"credentials:create", "credentials:read",
		"executions:read",
	},
	"ansible_operator": {
		"inventory:read",
		"playbooks:read", "playbooks:execute",
		"kubernetes:cluster:read",
		"credentials:read",
		"executions:read",
	},
	"viewer": {
		"inventory:read",
		"playbooks:read",
		"kubernetes:cluster:read",
		"executions:read",
	},
}

// RolePermissions returns the expanded permission set for a role.
// Unknown roles have no permissions.
func RolePermissions(role string) map[string]bool {
	permissions := make(map[string]bool)
	for _, pattern := range rolePermissions[role] {
		if strings.HasSuffix(pattern, ":*") {
			resource := strings.TrimSuffix(pattern, ":*")
			for _, perm := range allPermissions {
				if strings.HasPrefix(perm, resource) {
					permissions[perm] = true
				}
			}
			continue
		}
		permissions[pattern] = true
	}
	return permissions
}

// HasPermission checks if a role grants a specific permission
func HasPermission(role, permission string) bool {
	return RolePermissions(role)[permission]
}

// ValidRole reports whether the role is one of the defined roles
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// Roles returns the list of defined role names
func Roles() []string {
	return []string{"admin", "kubernetes_admin", "ansible_operator", "viewer"}
}
