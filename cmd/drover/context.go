package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/droverproject/drover/internal/config"
	"github.com/droverproject/drover/internal/kube"
	"github.com/droverproject/drover/internal/logger"
	"github.com/droverproject/drover/internal/plan"
	"github.com/droverproject/drover/internal/step"
	"github.com/droverproject/drover/internal/tui"
)

// appEnv bundles the services every subcommand needs: parsed config and
// a logger tuned to the terminal.
type appEnv struct {
	cfg         *config.Config
	log         *logger.Logger
	interactive bool
}

func newAppEnv(flags *rootFlags) (*appEnv, error) {
	if err := validateConfigPath(flags.configPath); err != nil {
		return nil, err
	}
	cfg, err := config.ParseConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	level := "info"
	if flags.verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: interactive})
	if err != nil {
		return nil, err
	}

	return &appEnv{cfg: cfg, log: log, interactive: interactive}, nil
}

func validateConfigPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config file is required (--config)")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("config file does not exist: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", abs)
	}
	return nil
}

// kubeClient builds the cluster client. The flag wins over the config
// file; with neither set, the usual kubeconfig locations apply.
func (env *appEnv) kubeClient(flags *rootFlags) (*kube.Client, error) {
	path := flags.kubeconfig
	if path == "" {
		path = env.cfg.Kubeconfig
	}
	if path == "" {
		path = os.Getenv("KUBECONFIG")
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("no kubeconfig configured and no home directory: %w", err)
		}
		path = filepath.Join(home, ".kube", "config")
	}
	return kube.NewFromKubeconfig(env.log, path)
}

// runPlan executes the assembled steps, interactively when stdout is a
// terminal, as plain log lines otherwise. SIGINT and SIGTERM cancel the
// run.
func (env *appEnv) runPlan(name string, steps []step.Step) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if env.interactive {
		return tui.Run(ctx, name, func(ctx context.Context, reporter *tui.Reporter) error {
			_, err := plan.NewRunner(env.log, reporter).Run(ctx, name, steps)
			return err
		})
	}

	_, err := plan.NewRunner(env.log, nil).Run(ctx, name, steps)
	return err
}
