package main

import (
	"github.com/spf13/cobra"

	"github.com/droverproject/drover/internal/config"
	"github.com/droverproject/drover/internal/iac"
	"github.com/droverproject/drover/internal/step"
	"github.com/droverproject/drover/internal/steps/bundle"
)

func newBundleCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Manage IaC plan bundles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Fetch every configured plan bundle into the working directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv(flags)
			if err != nil {
				return err
			}
			sync := iac.NewBundleSync(env.log, env.cfg.Workdir)
			steps := []step.Step{bundle.NewSyncBundlesStep(env.log, sync, configBundles(env.cfg))}
			return env.runPlan("sync-bundles", steps)
		},
	})

	return cmd
}

func configBundles(cfg *config.Config) []iac.Bundle {
	bundles := make([]iac.Bundle, 0, len(cfg.Plans))
	for _, p := range cfg.Plans {
		bundles = append(bundles, iac.Bundle{Name: p.Name, Source: p.Source, Ref: p.Ref})
	}
	return bundles
}
