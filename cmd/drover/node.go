package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/droverproject/drover/internal/config"
	"github.com/droverproject/drover/internal/kube"
	"github.com/droverproject/drover/internal/logger"
	"github.com/droverproject/drover/internal/step"
	"github.com/droverproject/drover/internal/steps/node"
)

func newNodeCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage cluster nodes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "cordon <node>",
		Short: "Mark a node unschedulable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodePlan(flags, "cordon-node", func(env *appEnv, client *kube.Client) ([]step.Step, error) {
				return cordonSteps(env.log, env.cfg, client, args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "uncordon <node>",
		Short: "Restore scheduling on a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodePlan(flags, "uncordon-node", func(env *appEnv, client *kube.Client) ([]step.Step, error) {
				return uncordonSteps(env.log, env.cfg, client, args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <node>",
		Short: "Cordon and drain a node so it can leave the cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodePlan(flags, "remove-node", func(env *appEnv, client *kube.Client) ([]step.Step, error) {
				return removeSteps(env.log, env.cfg, client, args[0])
			})
		},
	})

	return cmd
}

func runNodePlan(flags *rootFlags, planName string, build func(*appEnv, *kube.Client) ([]step.Step, error)) error {
	env, err := newAppEnv(flags)
	if err != nil {
		return err
	}
	client, err := env.kubeClient(flags)
	if err != nil {
		return err
	}
	steps, err := build(env, client)
	if err != nil {
		return err
	}
	return env.runPlan(planName, steps)
}

func requireInventoryNode(cfg *config.Config, name string) error {
	if _, ok := cfg.Node(name); !ok {
		return fmt.Errorf("node %q is not part of deployment %s", name, cfg.Name)
	}
	return nil
}

func cordonSteps(log *logger.Logger, cfg *config.Config, client *kube.Client, nodeName string) ([]step.Step, error) {
	if err := requireInventoryNode(cfg, nodeName); err != nil {
		return nil, err
	}
	return []step.Step{node.NewCordonStep(log, client, nodeName)}, nil
}

func uncordonSteps(log *logger.Logger, cfg *config.Config, client *kube.Client, nodeName string) ([]step.Step, error) {
	if err := requireInventoryNode(cfg, nodeName); err != nil {
		return nil, err
	}
	return []step.Step{node.NewUncordonStep(log, client, nodeName)}, nil
}

func removeSteps(log *logger.Logger, cfg *config.Config, client *kube.Client, nodeName string) ([]step.Step, error) {
	if err := requireInventoryNode(cfg, nodeName); err != nil {
		return nil, err
	}
	drainer := kube.NewDrainer(log, client)
	return []step.Step{
		node.NewCordonStep(log, client, nodeName),
		node.NewDrainStep(log, client, drainer, nodeName),
	}, nil
}
