package kube

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

const validKubeconfig = `apiVersion: v1
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

func TestValidateAuthData(t *testing.T) {
	t.Run("Valid kubeconfig", func(t *testing.T) {
		result := ValidateAuthData(validKubeconfig, "kubeconfig")
		assert.True(t, result.Valid)
		assert.Equal(t, "prod-context", result.ClusterName)
		assert.Equal(t, "https://10.0.0.1:6443", result.APIServer)
		assert.Equal(t, "kubeconfig", result.AuthType)
	})

	t.Run("Missing apiVersion", func(t *testing.T) {
		result := ValidateAuthData("kind: Config\nclusters: []\n", "kubeconfig")
		assert.False(t, result.Valid)
		assert.Contains(t, result.Error, "missing apiVersion")
	})

	t.Run("Missing sections", func(t *testing.T) {
		content := "apiVersion: v1\nkind: Config\nclusters:\n- name: c\n  cluster:\n    server: https://x\n"
		result := ValidateAuthData(content, "kubeconfig")
		assert.False(t, result.Valid)
		assert.Contains(t, result.Error, "contexts")
		assert.Contains(t, result.Error, "users")
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		result := ValidateAuthData("{{not yaml", "kubeconfig")
		assert.False(t, result.Valid)
		assert.Contains(t, result.Error, "Invalid YAML")
	})

	t.Run("Token long enough", func(t *testing.T) {
		token := "eyJhbGciOiJSUzI1NiIsImtpZCI6InRlc3QifQ.eyJzdWIiOiJ0ZXN0In0.sig"
		result := ValidateAuthData(token, "token")
		assert.True(t, result.Valid)
		assert.Equal(t, "token", result.AuthType)
	})

	t.Run("Token too short", func(t *testing.T) {
		result := ValidateAuthData("short-token", "token")
		assert.False(t, result.Valid)
		assert.Contains(t, result.Error, "too short")
	})

	t.Run("Unsupported auth type", func(t *testing.T) {
		result := ValidateAuthData("anything", "certificate")
		assert.False(t, result.Valid)
		assert.Contains(t, result.Error, "Unsupported auth type")
	})
}

func TestExtractAPIServer(t *testing.T) {
	assert.Equal(t, "https://10.0.0.1:6443", ExtractAPIServer(validKubeconfig))
	assert.Empty(t, ExtractAPIServer("apiVersion: v1\nclusters: []\n"))
	assert.Empty(t, ExtractAPIServer("{{garbage"))
}

func TestExtractClusterDescription(t *testing.T) {
	assert.Equal(t, "Registered cluster: prod", ExtractClusterDescription(validKubeconfig))
	assert.Equal(t, "Registered Kubernetes cluster", ExtractClusterDescription("apiVersion: v1\n"))
}

func TestBuildTokenKubeconfig(t *testing.T) {
	t.Run("Builds usable kubeconfig", func(t *testing.T) {
		data, err := BuildTokenKubeconfig("my-bearer-token", "https://10.0.0.1:6443")
		require.NoError(t, err)

		result := ValidateAuthData(string(data), "kubeconfig")
		assert.True(t, result.Valid)
		assert.Equal(t, "token-context", result.ClusterName)
		assert.Equal(t, "https://10.0.0.1:6443", result.APIServer)
	})

	t.Run("Requires API server", func(t *testing.T) {
		_, err := BuildTokenKubeconfig("token", "")
		assert.Error(t, err)
	})
}

func makeNode(name string, labels map[string]string, ready corev1.ConditionStatus, internalIP string) corev1.Node {
	return corev1.Node{
		ObjectMeta: metav1.ObjectMeta{
			Name:              name,
			Labels:            labels,
			CreationTimestamp: metav1.NewTime(time.Now()),
		},
		Status: corev1.NodeStatus{
			Addresses: []corev1.NodeAddress{
				{Type: corev1.NodeHostName, Address: name},
				{Type: corev1.NodeInternalIP, Address: internalIP},
			},
			Conditions: []corev1.NodeCondition{
				{Type: corev1.NodeReady, Status: ready},
			},
			NodeInfo: corev1.NodeSystemInfo{
				KubeletVersion:  "v1.31.0",
				OperatingSystem: "linux",
				Architecture:    "amd64",
			},
		},
	}
}

func TestParseNode(t *testing.T) {
	t.Run("Control plane node", func(t *testing.T) {
		node := makeNode("master-1", map[string]string{
			"node-role.kubernetes.io/control-plane": "",
		}, corev1.ConditionTrue, "10.0.0.1")

		info := parseNode(&node)
		assert.Equal(t, "master-1", info.Name)
		assert.Equal(t, "True", info.Status)
		assert.Equal(t, []string{"control-plane"}, info.Roles)
		assert.True(t, info.IsMaster())
		assert.Equal(t, "10.0.0.1", info.IPAddress)
		assert.Equal(t, "v1.31.0", info.Version)
		assert.Equal(t, "linux", info.OS)
	})

	t.Run("Legacy master label", func(t *testing.T) {
		node := makeNode("old-master", map[string]string{
			"kubernetes.io/role": "master",
		}, corev1.ConditionTrue, "10.0.0.2")

		info := parseNode(&node)
		assert.Equal(t, []string{"master"}, info.Roles)
		assert.True(t, info.IsMaster())
	})

	t.Run("Worker node with no role labels", func(t *testing.T) {
		node := makeNode("worker-1", map[string]string{}, corev1.ConditionFalse, "10.0.0.3")

		info := parseNode(&node)
		assert.Empty(t, info.Roles)
		assert.False(t, info.IsMaster())
		assert.Equal(t, "False", info.Status)
	})
}

func TestListNodes(t *testing.T) {
	master := makeNode("master-1", map[string]string{"node-role.kubernetes.io/control-plane": ""}, corev1.ConditionTrue, "10.0.0.1")
	worker := makeNode("worker-1", map[string]string{"node-role.kubernetes.io/worker": ""}, corev1.ConditionTrue, "10.0.0.2")

	client := &Client{
		clientset: fake.NewSimpleClientset(&master, &worker),
		timeout:   5 * time.Second,
	}

	nodes, err := client.ListNodes(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	masters, workers := CountNodes(nodes)
	assert.Equal(t, 1, masters)
	assert.Equal(t, 1, workers)
}

func TestCountNodes(t *testing.T) {
	nodes := []NodeInfo{
		{Roles: []string{"control-plane"}},
		{Roles: []string{"master"}},
		{Roles: []string{"worker"}},
		{Roles: []string{}},
	}

	masters, workers := CountNodes(nodes)
	assert.Equal(t, 2, masters)
	assert.Equal(t, 2, workers)
}

func TestHealthStatus(t *testing.T) {
	ready := NodeInfo{Status: "True"}
	notReady := NodeInfo{Status: "False"}

	assert.Equal(t, "critical", HealthStatus(nil))
	assert.Equal(t, "healthy", HealthStatus([]NodeInfo{ready, ready}))
	assert.Equal(t, "warning", HealthStatus([]NodeInfo{ready, notReady}))
	assert.Equal(t, "critical", HealthStatus([]NodeInfo{notReady, notReady, ready}))
}
