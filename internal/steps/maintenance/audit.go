// Package maintenance drives a node in and out of maintenance: the
// optimization service plans and applies workload moves, then the node
// steps empty or restore the node itself.
package maintenance

import (
	"context"
	"fmt"

	"github.com/droverproject/drover/internal/logger"
	"github.com/droverproject/drover/internal/model"
	"github.com/droverproject/drover/internal/optimize"
	"github.com/droverproject/drover/internal/step"
)

// maintenanceNodeParam is the strategy input naming the host to empty.
const maintenanceNodeParam = "maintenance_node"

// CreateAuditStep creates an audit from a template. The host variant
// passes the node as a strategy parameter; the balancing variant passes
// none.
type CreateAuditStep struct {
	step.Base
	log      *logger.Logger
	client   optimize.Client
	runner   *optimize.AuditRunner
	template string
	node     string

	audit *optimize.Audit
}

// NewCreateAuditStep builds the audit-creation step. node may be empty
// for audits that plan across the whole cluster.
func NewCreateAuditStep(log *logger.Logger, client optimize.Client, runner *optimize.AuditRunner, template, node string) *CreateAuditStep {
	if log == nil {
		log = logger.Nop()
	}
	return &CreateAuditStep{
		Base:     step.NewBase("create-audit-"+template, fmt.Sprintf("Create %s audit", template)),
		log:      log,
		client:   client,
		runner:   runner,
		template: template,
		node:     node,
	}
}

// Audit returns the created audit, nil before Run succeeded.
func (s *CreateAuditStep) Audit() *optimize.Audit {
	return s.audit
}

// Skip always proceeds; every run plans against current cluster state.
func (s *CreateAuditStep) Skip(context.Context) model.Result {
	return model.Completed()
}

// Run creates the audit and returns it with its initial action list.
// Creation retries are bounded; exhaustion is a step failure, never a
// panic or stray error.
func (s *CreateAuditStep) Run(ctx context.Context, status step.Status) model.Result {
	params := map[string]any{}
	if s.node != "" {
		params[maintenanceNodeParam] = s.node
	}

	status.Update(fmt.Sprintf("creating %s audit", s.template))
	audit, err := s.runner.EnsureAudit(ctx, s.template, params)
	if err != nil {
		return model.Failed("unable to create audit: %v", err)
	}
	s.audit = audit

	actions, err := s.client.ListActions(ctx, audit.UUID)
	if err != nil {
		return model.Failed("unable to list actions of audit %q: %v", audit.UUID, err)
	}
	return model.CompletedPayload(map[string]any{"audit": audit, "actions": actions})
}

// AuditSource hands an audit from a creation step to a run step inside
// the same plan.
type AuditSource interface {
	Audit() *optimize.Audit
}

// RunAuditStep waits for the audit to finish planning, executes its
// action plan, and waits for every action to reach a terminal state.
type RunAuditStep struct {
	step.Base
	log    *logger.Logger
	client optimize.Client
	runner *optimize.AuditRunner
	source AuditSource
}

// NewRunAuditStep builds the audit execution step.
func NewRunAuditStep(log *logger.Logger, client optimize.Client, runner *optimize.AuditRunner, source AuditSource) *RunAuditStep {
	if log == nil {
		log = logger.Nop()
	}
	return &RunAuditStep{
		Base:   step.NewBase("run-audit", "Apply planned workload moves"),
		log:    log,
		client: client,
		runner: runner,
		source: source,
	}
}

// Skip always proceeds; the audit arrives from the preceding step at
// run time.
func (s *RunAuditStep) Skip(context.Context) model.Result {
	return model.Completed()
}

// Run applies the action plan. A failed action fails the step but the
// final action list stays in the payload so operators see what did go
// through.
func (s *RunAuditStep) Run(ctx context.Context, status step.Status) model.Result {
	audit := s.source.Audit()
	if audit == nil {
		return model.Failed("no audit available to run")
	}

	status.Update("waiting for audit to finish planning")
	final, actions, err := s.runner.Wait(ctx, audit.UUID)
	if err != nil {
		return model.Failed("failed waiting for audit %q: %v", audit.UUID, err)
	}
	if !final.Succeeded() {
		return model.FailedPayload(payload(final, actions), "audit %s ended in state %s", final.UUID, final.State)
	}
	if len(actions) == 0 {
		s.log.WithFields(map[string]any{"audit": final.UUID}).Info("audit planned no actions")
		return model.CompletedPayload(payload(final, nil))
	}

	status.Update(fmt.Sprintf("executing %d planned actions", len(actions)))
	if err := s.client.ExecAudit(ctx, audit.UUID); err != nil {
		return model.Failed("failed to execute action plan of audit %q: %v", audit.UUID, err)
	}

	actions, err = s.runner.WaitActions(ctx, audit.UUID)
	if err != nil {
		return model.Failed("failed waiting for actions of audit %q: %v", audit.UUID, err)
	}

	if failed := optimize.FailedActions(actions); len(failed) > 0 {
		return model.FailedPayload(payload(final, actions), "%d of %d actions failed", len(failed), len(actions))
	}
	return model.CompletedPayload(payload(final, actions))
}

func payload(audit *optimize.Audit, actions []optimize.Action) map[string]any {
	return map[string]any{"audit": audit, "actions": actions}
}
