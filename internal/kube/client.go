package kube

import (
	"context"
	"fmt"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// NodeInfo describes a single cluster node as reported by the Kubernetes API
type NodeInfo struct {
	Name              string            `json:"name"`
	Status            string            `json:"status"`
	Roles             []string          `json:"roles"`
	Version           string            `json:"version"`
	OS                string            `json:"os"`
	Architecture      string            `json:"architecture"`
	CreationTimestamp time.Time         `json:"creation_timestamp"`
	IPAddress         string            `json:"ip_address"`
	Labels            map[string]string `json:"labels"`
}

// IsMaster reports whether the node carries a control-plane or master role
func (n NodeInfo) IsMaster() bool {
	for _, role := range n.Roles {
		if role == "control-plane" || role == "master" {
			return true
		}
	}
	return false
}

// Client wraps a Kubernetes clientset for a single registered cluster
type Client struct {
	clientset kubernetes.Interface
	timeout   time.Duration
}

// NewClient creates a client from raw kubeconfig bytes
func NewClient(kubeconfig []byte, timeout time.Duration) (*Client, error) {
	restConfig, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build REST config: %w", err)
	}
	restConfig.Timeout = timeout

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	return &Client{clientset: clientset, timeout: timeout}, nil
}

// ListNodes retrieves all nodes from the cluster
func (c *Client) ListNodes(ctx context.Context) ([]NodeInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	nodeList, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, classifyAPIError(err)
	}

	nodes := make([]NodeInfo, 0, len(nodeList.Items))
	for i := range nodeList.Items {
		nodes = append(nodes, parseNode(&nodeList.Items[i]))
	}
	return nodes, nil
}

// parseNode extracts the fields the platform tracks from a node object
func parseNode(node *corev1.Node) NodeInfo {
	info := NodeInfo{
		Name:              node.Name,
		Status:            "Unknown",
		Roles:             []string{},
		Version:           node.Status.NodeInfo.KubeletVersion,
		OS:                node.Status.NodeInfo.OperatingSystem,
		Architecture:      node.Status.NodeInfo.Architecture,
		CreationTimestamp: node.CreationTimestamp.Time,
		IPAddress:         "unknown",
		Labels:            node.Labels,
	}

	for _, addr := range node.Status.Addresses {
		if addr.Type == corev1.NodeInternalIP {
			info.IPAddress = addr.Address
			break
		}
	}

	for key := range node.Labels {
		if strings.HasPrefix(key, "node-role.kubernetes.io/") {
			info.Roles = append(info.Roles, strings.TrimPrefix(key, "node-role.kubernetes.io/"))
		}
	}
	// Older clusters label masters differently
	if len(info.Roles) == 0 && node.Labels["kubernetes.io/role"] == "master" {
		info.Roles = append(info.Roles, "master")
	}

	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			info.Status = string(cond.Status)
			break
		}
	}

	return info
}

// classifyAPIError maps common API failures to friendlier messages
func classifyAPIError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connect"), strings.Contains(msg, "no such host"), strings.Contains(msg, "timeout"):
		return fmt.Errorf("unable to connect to Kubernetes API: %w", err)
	case strings.Contains(msg, "Unauthorized"), strings.Contains(msg, "Forbidden"):
		return fmt.Errorf("authentication failed: %w", err)
	default:
		return fmt.Errorf("kubernetes API error: %w", err)
	}
}

// CountNodes returns master/worker counts for a node list
func CountNodes(nodes []NodeInfo) (masters, workers int) {
	for _, node := range nodes {
		if node.IsMaster() {
			masters++
		} else {
			workers++
		}
	}
	return masters, workers
}

// HealthStatus derives an overall health label from node readiness. All
// nodes ready is healthy; at least half ready is warning; anything less,
// or an empty cluster, is critical.
func HealthStatus(nodes []NodeInfo) string {
	total := len(nodes)
	if total == 0 {
		return "critical"
	}

	ready := 0
	for _, node := range nodes {
		if node.Status == "True" {
			ready++
		}
	}

	switch {
	case ready == total:
		return "healthy"
	case float64(ready) >= float64(total)*0.5:
		return "warning"
	default:
		return "critical"
	}
}
