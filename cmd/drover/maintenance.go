package main

import (
	"github.com/spf13/cobra"

	"github.com/droverproject/drover/internal/kube"
	"github.com/droverproject/drover/internal/steps/maintenance"
)

func newMaintenanceCmd(flags *rootFlags) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Move a node in and out of its maintenance window",
	}
	cmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without touching the node")

	cmd.AddCommand(&cobra.Command{
		Use:   "enter <node>",
		Short: "Cordon and drain a node for maintenance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv(flags)
			if err != nil {
				return err
			}
			client, err := env.kubeClient(flags)
			if err != nil {
				return err
			}
			if err := requireInventoryNode(env.cfg, args[0]); err != nil {
				return err
			}
			drainer := kube.NewDrainer(env.log, client)
			steps := maintenance.EnterPlan(env.log, client, drainer, nil, nil, env.cfg.Maintenance.AuditTemplate, args[0], dryRun)
			return env.runPlan("enter-maintenance", steps)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "exit <node>",
		Short: "Bring a node back from maintenance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv(flags)
			if err != nil {
				return err
			}
			client, err := env.kubeClient(flags)
			if err != nil {
				return err
			}
			if err := requireInventoryNode(env.cfg, args[0]); err != nil {
				return err
			}
			steps := maintenance.ExitPlan(env.log, client, nil, nil, env.cfg.Maintenance.BalanceTemplate, args[0], dryRun)
			return env.runPlan("exit-maintenance", steps)
		},
	})

	return cmd
}
