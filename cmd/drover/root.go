package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose    bool
	configPath string
	kubeconfig string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "drover",
		Short:         "Drover drives a deployment through infrastructure changes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to the deployment config")
	cmd.PersistentFlags().StringVar(&flags.kubeconfig, "kubeconfig", "", "Path to the cluster kubeconfig (overrides the config file)")

	cmd.AddCommand(newNodeCmd(flags))
	cmd.AddCommand(newMaintenanceCmd(flags))
	cmd.AddCommand(newBundleCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
