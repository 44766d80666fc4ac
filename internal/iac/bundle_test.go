package iac

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func initPlanRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.tf"), []byte("# machine plan"), 0o644))
	_, err = wt.Add("main.tf")
	require.NoError(t, err)

	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "drover",
			Email: "drover@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return dir
}

func TestBundleSyncClonesGitSource(t *testing.T) {
	source := initPlanRepo(t)
	workdir := t.TempDir()

	sync := NewBundleSync(nil, workdir)
	bundle := Bundle{Name: "openstack-machines", Source: source}

	require.NoError(t, sync.Sync(context.Background(), []Bundle{bundle}))

	contents, err := os.ReadFile(filepath.Join(sync.Dir(bundle), "main.tf"))
	require.NoError(t, err)
	require.Contains(t, string(contents), "machine plan")
}

func TestBundleSyncSecondRunPulls(t *testing.T) {
	source := initPlanRepo(t)
	workdir := t.TempDir()

	sync := NewBundleSync(nil, workdir)
	bundles := []Bundle{{Name: "openstack-machines", Source: source}}

	require.NoError(t, sync.Sync(context.Background(), bundles))
	// Re-running against an unchanged source must be a no-op, not an error.
	require.NoError(t, sync.Sync(context.Background(), bundles))
}

func TestBundleSyncCopiesLocalDirectory(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(source, "modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "main.tf"), []byte("# root"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "modules", "net.tf"), []byte("# net"), 0o644))

	workdir := t.TempDir()
	sync := NewBundleSync(nil, workdir)
	bundle := Bundle{Name: "local-plan", Source: source}

	require.NoError(t, sync.Sync(context.Background(), []Bundle{bundle}))

	root, err := os.ReadFile(filepath.Join(sync.Dir(bundle), "main.tf"))
	require.NoError(t, err)
	require.Equal(t, "# root", string(root))

	nested, err := os.ReadFile(filepath.Join(sync.Dir(bundle), "modules", "net.tf"))
	require.NoError(t, err)
	require.Equal(t, "# net", string(nested))
}

func TestBundleSyncMissingSourceFails(t *testing.T) {
	t.Parallel()

	sync := NewBundleSync(nil, t.TempDir())
	err := sync.Sync(context.Background(), []Bundle{{Name: "ghost", Source: filepath.Join(t.TempDir(), "missing")}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "ghost")
}
