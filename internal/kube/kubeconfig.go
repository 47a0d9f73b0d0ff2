// Package kube talks to registered Kubernetes clusters. It validates
// kubeconfigs, builds minimal kubeconfigs for token authentication, and lists
// cluster nodes through the Kubernetes API.
package kube

import (
	"fmt"
	"strings"

	"sigs.k8s.io/yaml"
)

// kubeconfigFile is the subset of the kubeconfig format needed for validation
// and API server extraction.
type kubeconfigFile struct {
	APIVersion     string `json:"apiVersion"`
	Kind           string `json:"kind"`
	CurrentContext string `json:"current-context"`
	Clusters       []struct {
		Name    string `json:"name"`
		Cluster struct {
			Server                string `json:"server"`
			InsecureSkipTLSVerify bool   `json:"insecure-skip-tls-verify,omitempty"`
		} `json:"cluster"`
	} `json:"clusters"`
	Contexts []struct {
		Name    string `json:"name"`
		Context struct {
			Cluster   string `json:"cluster"`
			User      string `json:"user"`
			Namespace string `json:"namespace,omitempty"`
		} `json:"context"`
	} `json:"contexts"`
	Users []struct {
		Name string `json:"name"`
		User struct {
			Token string `json:"token,omitempty"`
		} `json:"user"`
	} `json:"users"`
}

// ValidationResult describes the outcome of kubeconfig or token validation
type ValidationResult struct {
	Valid       bool   `json:"valid"`
	ClusterName string `json:"cluster_name,omitempty"`
	APIServer   string `json:"api_server,omitempty"`
	AuthType    string `json:"auth_type,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ValidateAuthData validates cluster authentication data. For kubeconfig auth
// the content must be a parseable kubeconfig with clusters, contexts, and
// users sections; for token auth a minimum length check is applied.
func ValidateAuthData(content, authType string) ValidationResult {
	switch authType {
	case "kubeconfig":
		return validateKubeconfig(content)
	case "token":
		if len(strings.TrimSpace(content)) < 50 {
			return ValidationResult{Valid: false, Error: "Token appears to be invalid (too short)"}
		}
		return ValidationResult{Valid: true, AuthType: "token"}
	default:
		return ValidationResult{Valid: false, Error: fmt.Sprintf("Unsupported auth type: %s", authType)}
	}
}

func validateKubeconfig(content string) ValidationResult {
	var cfg kubeconfigFile
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return ValidationResult{Valid: false, Error: fmt.Sprintf("Invalid YAML format: %v", err)}
	}

	if cfg.APIVersion == "" {
		return ValidationResult{Valid: false, Error: "Invalid kubeconfig: missing apiVersion"}
	}

	var missing []string
	if len(cfg.Clusters) == 0 {
		missing = append(missing, "clusters")
	}
	if len(cfg.Contexts) == 0 {
		missing = append(missing, "contexts")
	}
	if len(cfg.Users) == 0 {
		missing = append(missing, "users")
	}
	if len(missing) > 0 {
		return ValidationResult{Valid: false, Error: fmt.Sprintf("Missing required sections: %s", strings.Join(missing, ", "))}
	}

	return ValidationResult{
		Valid:       true,
		ClusterName: cfg.CurrentContext,
		APIServer:   cfg.Clusters[0].Cluster.Server,
		AuthType:    "kubeconfig",
	}
}

// ExtractAPIServer returns the server URL of the first cluster in a
// kubeconfig, or an empty string if it cannot be determined.
func ExtractAPIServer(kubeconfig string) string {
	var cfg kubeconfigFile
	if err := yaml.Unmarshal([]byte(kubeconfig), &cfg); err != nil {
		return ""
	}
	if len(cfg.Clusters) == 0 {
		return ""
	}
	return cfg.Clusters[0].Cluster.Server
}

// ExtractClusterDescription derives a human-readable description from a
// kubeconfig's current context.
func ExtractClusterDescription(kubeconfig string) string {
	var cfg kubeconfigFile
	if err := yaml.Unmarshal([]byte(kubeconfig), &cfg); err != nil {
		return "Registered Kubernetes cluster"
	}
	for _, ctx := range cfg.Contexts {
		if ctx.Name == cfg.CurrentContext {
			return fmt.Sprintf("Registered cluster: %s", ctx.Context.Cluster)
		}
	}
	return "Registered Kubernetes cluster"
}

// BuildTokenKubeconfig constructs a minimal kubeconfig that authenticates to
// an API server with a bearer token.
func BuildTokenKubeconfig(token, apiServer string) ([]byte, error) {
	if apiServer == "" {
		return nil, fmt.Errorf("API server URL is required for token authentication")
	}

	cluster := map[string]interface{}{
		"server": apiServer,
	}
	// The platform does not manage cluster CA bundles for token auth
	if strings.HasPrefix(apiServer, "https://") {
		cluster["insecure-skip-tls-verify"] = true
	}

	kubeconfig := map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Config",
		"clusters": []map[string]interface{}{
			{"name": "token-cluster", "cluster": cluster},
		},
		"users": []map[string]interface{}{
			{"name": "token-user", "user": map[string]interface{}{"token": token}},
		},
		"contexts": []map[string]interface{}{
			{"name": "token-context", "context": map[string]interface{}{
				"cluster":   "token-cluster",
				"user":      "token-user",
				"namespace": "default",
			}},
		},
		"current-context": "token-context",
	}

	data, err := yaml.Marshal(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal kubeconfig: %w", err)
	}
	return data, nil
}
