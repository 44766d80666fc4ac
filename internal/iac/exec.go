package iac

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/droverproject/drover/internal/logger"
	droverrors "github.com/droverproject/drover/pkg/errors"
)

const varsFileName = "drover.tfvars.json"

// ExecEngine drives a terraform-compatible binary inside a plan
// directory. One ExecEngine per plan; the plan name only feeds error
// context.
type ExecEngine struct {
	log  *logger.Logger
	plan string
	bin  string
	dir  string
	env  []string
}

// NewExecEngine constructs an engine for one plan directory.
func NewExecEngine(log *logger.Logger, plan, bin, dir string) *ExecEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &ExecEngine{log: log, plan: plan, bin: bin, dir: dir}
}

// SetEnv adds environment entries ("KEY=value") passed to every
// invocation on top of the process environment.
func (e *ExecEngine) SetEnv(env []string) {
	e.env = env
}

// WriteVars persists variables as the plan's var file, consumed by the
// next Apply or Destroy.
func (e *ExecEngine) WriteVars(vars map[string]any) error {
	data, err := json.MarshalIndent(vars, "", "  ")
	if err != nil {
		return droverrors.NewApplyError(e.plan, err)
	}
	path := filepath.Join(e.dir, varsFileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return droverrors.NewApplyError(e.plan, err)
	}
	return nil
}

// Init prepares the plan directory (provider/module download).
func (e *ExecEngine) Init(ctx context.Context) error {
	return e.run(ctx, "init", "-no-color", "-input=false")
}

// Apply converges the plan towards its configuration.
func (e *ExecEngine) Apply(ctx context.Context) error {
	args := []string{"apply", "-auto-approve", "-no-color", "-input=false"}
	if e.hasVarsFile() {
		args = append(args, "-var-file="+varsFileName)
	}
	return e.run(ctx, args...)
}

// Destroy applies the declarative destroy operation.
func (e *ExecEngine) Destroy(ctx context.Context) error {
	args := []string{"destroy", "-auto-approve", "-no-color", "-input=false"}
	if e.hasVarsFile() {
		args = append(args, "-var-file="+varsFileName)
	}
	return e.run(ctx, args...)
}

// PullState reads the engine's current managed-resource state.
func (e *ExecEngine) PullState(ctx context.Context) (State, error) {
	cmd := exec.CommandContext(ctx, e.bin, "state", "pull")
	cmd.Dir = e.dir
	cmd.Env = append(os.Environ(), e.env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return State{}, droverrors.NewApplyError(e.plan, fmt.Errorf("state pull: %s", tail(stderr.String(), err)))
	}

	var state State
	if err := json.Unmarshal(stdout.Bytes(), &state); err != nil {
		return State{}, droverrors.NewApplyError(e.plan, fmt.Errorf("state decode: %w", err))
	}
	return state, nil
}

func (e *ExecEngine) run(ctx context.Context, args ...string) error {
	e.log.WithFields(map[string]any{"plan": e.plan, "args": strings.Join(args, " ")}).Debug("running engine")

	cmd := exec.CommandContext(ctx, e.bin, args...)
	cmd.Dir = e.dir
	cmd.Env = append(os.Environ(), e.env...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return droverrors.NewApplyError(e.plan, fmt.Errorf("%s: %s", args[0], tail(stderr.String(), err)))
	}
	return nil
}

func (e *ExecEngine) hasVarsFile() bool {
	_, err := os.Stat(filepath.Join(e.dir, varsFileName))
	return err == nil
}

// tail keeps error output short enough for a one-line failure message.
func tail(stderr string, fallback error) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		if fallback == nil {
			return ""
		}
		return fallback.Error()
	}
	lines := strings.Split(stderr, "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, "; ")
}
