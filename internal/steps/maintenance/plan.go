package maintenance

import (
	"github.com/droverproject/drover/internal/kube"
	"github.com/droverproject/drover/internal/logger"
	"github.com/droverproject/drover/internal/optimize"
	"github.com/droverproject/drover/internal/step"
	"github.com/droverproject/drover/internal/steps/node"
)

// EnterPlan assembles the steps that take a node into maintenance: plan
// and apply workload moves, then cordon and drain. In dry-run mode the
// audit is still created, so the payload shows the planned moves, but
// nothing is executed or touched. A nil optClient composes the node
// window alone; workload placement is then left to whatever manages it.
func EnterPlan(log *logger.Logger, kubeClient *kube.Client, drainer node.Drainer, optClient optimize.Client, runner *optimize.AuditRunner, template, target string, dryRun bool) []step.Step {
	cordon := node.NewCordonStep(log, kubeClient, target)
	drain := node.NewDrainStep(log, kubeClient, drainer, target)

	steps := make([]step.Step, 0, 4)
	if optClient != nil {
		create := NewCreateAuditStep(log, optClient, runner, template, target)
		run := NewRunAuditStep(log, optClient, runner, create)
		steps = append(steps, create, DryRun(run, "Run workload moves for", target, dryRun))
	}
	return append(steps,
		DryRun(cordon, "Cordon", target, dryRun),
		DryRun(drain, "Drain", target, dryRun),
	)
}

// ExitPlan assembles the steps that bring a node back: uncordon, then a
// balancing audit spreads workload over the restored capacity.
func ExitPlan(log *logger.Logger, kubeClient *kube.Client, optClient optimize.Client, runner *optimize.AuditRunner, balanceTemplate, target string, dryRun bool) []step.Step {
	uncordon := node.NewUncordonStep(log, kubeClient, target)

	steps := []step.Step{DryRun(uncordon, "Uncordon", target, dryRun)}
	if optClient == nil {
		return steps
	}
	create := NewCreateAuditStep(log, optClient, runner, balanceTemplate, "")
	run := NewRunAuditStep(log, optClient, runner, create)
	return append(steps,
		create,
		DryRun(run, "Run workload moves for", target, dryRun),
	)
}
