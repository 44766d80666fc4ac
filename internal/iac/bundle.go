package iac

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/droverproject/drover/internal/logger"
)

// Bundle names one plan bundle and where its sources live. Source is a
// git URL or a local directory.
type Bundle struct {
	Name   string
	Source string
	Ref    string
}

// BundleSync materialises plan bundles into the deployment working
// directory so an ExecEngine can run them. Git sources are cloned once
// and pulled afterwards; local sources are copied.
type BundleSync struct {
	log     *logger.Logger
	workdir string
}

// NewBundleSync constructs a BundleSync rooted at workdir.
func NewBundleSync(log *logger.Logger, workdir string) *BundleSync {
	if log == nil {
		log = logger.Nop()
	}
	return &BundleSync{log: log, workdir: workdir}
}

// Dir returns the directory a bundle materialises into.
func (b *BundleSync) Dir(bundle Bundle) string {
	return filepath.Join(b.workdir, bundle.Name)
}

// Sync brings every bundle up to date. The first failure aborts; bundles
// are independent, so callers re-run after fixing the source.
func (b *BundleSync) Sync(ctx context.Context, bundles []Bundle) error {
	if err := os.MkdirAll(b.workdir, 0o755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	for _, bundle := range bundles {
		if err := b.syncOne(ctx, bundle); err != nil {
			return fmt.Errorf("bundle %s: %w", bundle.Name, err)
		}
		b.log.WithFields(map[string]any{"bundle": bundle.Name}).Debug("bundle synced")
	}
	return nil
}

func (b *BundleSync) syncOne(ctx context.Context, bundle Bundle) error {
	dest := b.Dir(bundle)

	if isGitSource(bundle.Source) {
		return b.syncGit(ctx, bundle, dest)
	}
	return copyTree(bundle.Source, dest)
}

func (b *BundleSync) syncGit(ctx context.Context, bundle Bundle, dest string) error {
	if _, err := os.Stat(filepath.Join(dest, ".git")); err == nil {
		repo, err := git.PlainOpen(dest)
		if err != nil {
			return err
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return err
		}
		err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return err
		}
		return nil
	}

	opts := &git.CloneOptions{URL: bundle.Source}
	if bundle.Ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(bundle.Ref)
		opts.SingleBranch = true
	}
	_, err := git.PlainCloneContext(ctx, dest, false, opts)
	return err
}

// isGitSource treats URLs and local repositories as git sources; plain
// directories are copied instead.
func isGitSource(source string) bool {
	if strings.Contains(source, "://") || strings.HasPrefix(source, "git@") {
		return true
	}
	_, err := os.Stat(filepath.Join(source, ".git"))
	return err == nil
}

// copyTree mirrors a local bundle directory into dest.
func copyTree(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("bundle source %s is not a directory", src)
	}

	return filepath.WalkDir(src, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
