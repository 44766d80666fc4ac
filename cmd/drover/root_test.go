package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/droverproject/drover/internal/config"
	"github.com/droverproject/drover/internal/iac"
)

func TestRootListsSubcommands(t *testing.T) {
	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"--help"})

	require.NoError(t, root.Execute())
	out := buf.String()
	for _, sub := range []string{"node", "maintenance", "bundle", "version"} {
		require.Contains(t, out, sub)
	}
}

func TestCommandsRequireConfig(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"bundle", "sync"})

	err := root.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "config file is required")
}

func TestValidateConfigPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "drover.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: lab\n"), 0o644))

	require.NoError(t, validateConfigPath(file))
	require.Error(t, validateConfigPath(filepath.Join(dir, "absent.yaml")))
	require.Error(t, validateConfigPath(dir))
	require.Error(t, validateConfigPath("  "))
}

func TestConfigBundlesMapsPlans(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Plans: []config.Plan{
		{Name: "openstack", Source: "https://example.com/plans.git", Ref: "stable"},
		{Name: "hypervisor", Source: "/srv/plans/hypervisor"},
	}}

	require.Equal(t, []iac.Bundle{
		{Name: "openstack", Source: "https://example.com/plans.git", Ref: "stable"},
		{Name: "hypervisor", Source: "/srv/plans/hypervisor"},
	}, configBundles(cfg))
}
