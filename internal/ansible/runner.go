// Package ansible executes playbooks through the ansible-playbook binary.
// Playbook, inventory, and SSH key material are written to temporary files for
// the duration of a run and removed afterwards.
package ansible

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CloudSihmar/ansible-platform/internal/config"
)

// RunRequest describes a single playbook execution
type RunRequest struct {
	PlaybookContent  string
	InventoryContent string
	SSHPrivateKey    string
	ExtraVars        map[string]interface{}
	Tags             string
	SkipTags         string
}

// RunResult holds the outcome of a playbook execution
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Succeeded reports whether the playbook run exited cleanly
func (r RunResult) Succeeded() bool {
	return r.ExitCode == 0
}

// Runner executes ansible-playbook commands
type Runner struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewRunner creates a playbook runner
func NewRunner(cfg *config.Config, logger *zap.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

// Run executes a playbook against an inventory. The context bounds the run in
// addition to the configured timeout.
func (r *Runner) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	runDir, err := os.MkdirTemp(r.cfg.Ansible.WorkDir, "ansible-run-"+uuid.New().String()[:8]+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	defer os.RemoveAll(runDir)

	playbookPath := filepath.Join(runDir, "playbook.yaml")
	if err := os.WriteFile(playbookPath, []byte(req.PlaybookContent), 0600); err != nil {
		return nil, fmt.Errorf("failed to write playbook: %w", err)
	}

	inventoryPath := filepath.Join(runDir, "inventory")
	if err := os.WriteFile(inventoryPath, []byte(req.InventoryContent), 0600); err != nil {
		return nil, fmt.Errorf("failed to write inventory: %w", err)
	}

	args := []string{"-i", inventoryPath, playbookPath}

	if req.SSHPrivateKey != "" {
		keyPath := filepath.Join(runDir, "ssh_key")
		if err := os.WriteFile(keyPath, []byte(req.SSHPrivateKey), 0600); err != nil {
			return nil, fmt.Errorf("failed to write SSH key: %w", err)
		}
		args = append(args, "--private-key", keyPath)
	}

	if len(req.ExtraVars) > 0 {
		extraVars, err := json.Marshal(req.ExtraVars)
		if err != nil {
			return nil, fmt.Errorf("failed to encode extra vars: %w", err)
		}
		args = append(args, "--extra-vars", string(extraVars))
	}

	if req.Tags != "" {
		args = append(args, "--tags", req.Tags)
	}
	if req.SkipTags != "" {
		args = append(args, "--skip-tags", req.SkipTags)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Ansible.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.cfg.Ansible.BinaryPath, args...)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("ANSIBLE_HOST_KEY_CHECKING=%s", boolToPythonic(r.cfg.Ansible.HostKeyChecking)),
		"ANSIBLE_SSH_RETRIES=3",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info("Executing playbook",
		zap.String("binary", r.cfg.Ansible.BinaryPath),
		zap.Int("args", len(args)),
	)

	err = cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return &RunResult{
			ExitCode: 1,
			Stdout:   stdout.String(),
			Stderr:   fmt.Sprintf("Playbook execution timed out after %s", r.cfg.Ansible.Timeout),
		}, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to execute ansible-playbook: %w", err)
		}
		// Non-zero exit is a playbook failure, not a runner error
	}

	return &RunResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// SyntaxCheck validates playbook syntax without executing it
func (r *Runner) SyntaxCheck(ctx context.Context, playbookContent string) (bool, string) {
	runDir, err := os.MkdirTemp(r.cfg.Ansible.WorkDir, "ansible-syntax-")
	if err != nil {
		return false, fmt.Sprintf("Syntax check failed: %v", err)
	}
	defer os.RemoveAll(runDir)

	playbookPath := filepath.Join(runDir, "playbook.yaml")
	if err := os.WriteFile(playbookPath, []byte(playbookContent), 0600); err != nil {
		return false, fmt.Sprintf("Syntax check failed: %v", err)
	}

	cmd := exec.CommandContext(ctx, r.cfg.Ansible.BinaryPath, "--syntax-check", playbookPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return false, stderr.String()
		}
		return false, fmt.Sprintf("Syntax check failed: %v", err)
	}
	return true, "Syntax check passed"
}

// Version returns the first line of ansible-playbook --version output
func (r *Runner) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, r.cfg.Ansible.BinaryPath, "--version")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get ansible version: %w", err)
	}

	lines := strings.SplitN(string(output), "\n", 2)
	return strings.TrimSpace(lines[0]), nil
}

// Ansible reads booleans as True/False
func boolToPythonic(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
