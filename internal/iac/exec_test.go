package iac

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	droverrors "github.com/droverproject/drover/pkg/errors"
)

func writeFakeBin(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-engine")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestExecEngineApplyPassesVarFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bin := writeFakeBin(t, `echo "$@" >> args.log`)

	engine := NewExecEngine(nil, "openstack-machines", bin, dir)
	require.NoError(t, engine.WriteVars(map[string]any{"machine_ids": []string{"3", "7"}}))
	require.NoError(t, engine.Apply(context.Background()))

	logged, err := os.ReadFile(filepath.Join(dir, "args.log"))
	require.NoError(t, err)
	require.Contains(t, string(logged), "apply -auto-approve")
	require.Contains(t, string(logged), "-var-file="+varsFileName)
}

func TestExecEngineDestroyWithoutVarsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bin := writeFakeBin(t, `echo "$@" >> args.log`)

	engine := NewExecEngine(nil, "openstack-machines", bin, dir)
	require.NoError(t, engine.Destroy(context.Background()))

	logged, err := os.ReadFile(filepath.Join(dir, "args.log"))
	require.NoError(t, err)
	require.Contains(t, string(logged), "destroy -auto-approve")
	require.NotContains(t, string(logged), "-var-file")
}

func TestExecEnginePullStateParsesResources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	state := `{"resources":[{"type":"juju_application","name":"sunbeam-machine"},{"type":"juju_model","name":"controller"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.json"), []byte(state), 0o644))
	bin := writeFakeBin(t, `cat state.json`)

	engine := NewExecEngine(nil, "openstack-machines", bin, dir)
	pulled, err := engine.PullState(context.Background())
	require.NoError(t, err)
	require.Len(t, pulled.Resources, 2)
	require.False(t, pulled.Empty())
	require.Len(t, pulled.ResourcesOfType("juju_application"), 1)
}

func TestExecEngineApplyFailureWrapsStderr(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bin := writeFakeBin(t, `echo "Error: provider timeout" >&2; exit 1`)

	engine := NewExecEngine(nil, "openstack-machines", bin, dir)
	err := engine.Apply(context.Background())

	var applyErr *droverrors.ApplyError
	require.ErrorAs(t, err, &applyErr)
	require.Equal(t, "openstack-machines", applyErr.Plan)
	require.Contains(t, err.Error(), "provider timeout")
}

func TestExecEngineBadStateJSONFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bin := writeFakeBin(t, `echo "not json"`)

	engine := NewExecEngine(nil, "broken", bin, dir)
	_, err := engine.PullState(context.Background())

	var applyErr *droverrors.ApplyError
	require.ErrorAs(t, err, &applyErr)
}

func TestTailKeepsLastLines(t *testing.T) {
	t.Parallel()

	long := strings.Join([]string{"one", "two", "three", "four", "five"}, "\n")
	short := tail(long, nil)
	require.Equal(t, "three; four; five", short)
	require.Equal(t, "boom", tail("", &resultErr{"boom"}))
}

type resultErr struct{ msg string }

func (e *resultErr) Error() string { return e.msg }
