package optimize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/droverproject/drover/internal/logger"
	droverrors "github.com/droverproject/drover/pkg/errors"
)

const (
	// createAttempts bounds how often audit creation is retried before
	// the caller sees the failure.
	createAttempts = 3
	createInterval = 10 * time.Second

	// DefaultPollInterval is how often a running audit is re-checked.
	DefaultPollInterval = 15 * time.Second
)

// AuditRunner drives audits from creation to a terminal state.
type AuditRunner struct {
	log    *logger.Logger
	client Client

	pollInterval  time.Duration
	retryInterval time.Duration
}

// RunnerOption adjusts an AuditRunner.
type RunnerOption func(*AuditRunner)

// WithPollInterval overrides how often audits and actions are re-checked.
func WithPollInterval(interval time.Duration) RunnerOption {
	return func(r *AuditRunner) { r.pollInterval = interval }
}

// WithRetryInterval overrides the pause between creation retries.
func WithRetryInterval(interval time.Duration) RunnerOption {
	return func(r *AuditRunner) { r.retryInterval = interval }
}

// NewAuditRunner returns a runner with default intervals.
func NewAuditRunner(log *logger.Logger, client Client, opts ...RunnerOption) *AuditRunner {
	if log == nil {
		log = logger.Nop()
	}
	runner := &AuditRunner{
		log:           log,
		client:        client,
		pollInterval:  DefaultPollInterval,
		retryInterval: createInterval,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// EnsureAudit creates an audit from the named template, retrying
// transient creation failures a bounded number of times. The template
// must already exist; a missing template is not retried.
func (r *AuditRunner) EnsureAudit(ctx context.Context, template string, parameters map[string]any) (*Audit, error) {
	tpl, err := r.client.GetAuditTemplate(ctx, template)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve audit template %q: %w", template, err)
	}

	var audit *Audit
	create := func() error {
		var createErr error
		audit, createErr = r.client.CreateAudit(ctx, tpl.Name, parameters)
		if createErr != nil {
			r.log.WithFields(map[string]any{"template": tpl.Name, "error": createErr.Error()}).Warn("audit creation failed, retrying")
		}
		return createErr
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.retryInterval), createAttempts-1),
		ctx,
	)
	if err := backoff.Retry(create, policy); err != nil {
		return nil, fmt.Errorf("failed to create audit from template %q: %w", tpl.Name, err)
	}

	r.log.WithFields(map[string]any{"template": tpl.Name, "audit": audit.UUID}).Info("audit created")
	return audit, nil
}

// Wait polls the audit until it reaches a terminal state, then returns
// the final audit together with its planned actions. The action list is
// returned even when the audit failed so callers can report what was
// attempted. The context deadline bounds the wait.
func (r *AuditRunner) Wait(ctx context.Context, auditUUID string) (*Audit, []Action, error) {
	audit, err := r.pollUntilTerminal(ctx, auditUUID)
	if err != nil {
		return nil, nil, err
	}

	actions, err := r.client.ListActions(ctx, audit.UUID)
	if err != nil {
		return audit, nil, fmt.Errorf("failed to list actions for audit %q: %w", audit.UUID, err)
	}
	return audit, actions, nil
}

func (r *AuditRunner) pollUntilTerminal(ctx context.Context, auditUUID string) (*Audit, error) {
	interval := r.pollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		audit, err := r.client.GetAudit(ctx, auditUUID)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, droverrors.NewTimeoutError("wait for audit "+auditUUID, 0, err)
			}
			return nil, err
		}
		if IsTerminal(audit.State) {
			r.log.WithFields(map[string]any{"audit": audit.UUID, "state": audit.State}).Info("audit finished")
			return audit, nil
		}
		r.log.WithFields(map[string]any{"audit": audit.UUID, "state": audit.State}).Debug("audit still running")

		select {
		case <-ctx.Done():
			return nil, droverrors.NewTimeoutError("wait for audit "+auditUUID, 0, ctx.Err())
		case <-ticker.C:
		}
	}
}

// WaitActions polls the audit's action list until every action reached a
// terminal state, then returns the final list. Failed actions are the
// caller's to judge; only transport errors and the deadline fail the wait.
func (r *AuditRunner) WaitActions(ctx context.Context, auditUUID string) ([]Action, error) {
	interval := r.pollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		actions, err := r.client.ListActions(ctx, auditUUID)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, droverrors.NewTimeoutError("actions of audit "+auditUUID, 0, err)
			}
			return nil, err
		}
		if allTerminal(actions) {
			return actions, nil
		}
		r.log.WithFields(map[string]any{"audit": auditUUID, "total": len(actions)}).Debug("actions still running")

		select {
		case <-ctx.Done():
			return nil, droverrors.NewTimeoutError("actions of audit "+auditUUID, 0, ctx.Err())
		case <-ticker.C:
		}
	}
}

func allTerminal(actions []Action) bool {
	for _, action := range actions {
		if !IsTerminal(action.State) {
			return false
		}
	}
	return true
}

// FailedActions filters the actions that did not succeed.
func FailedActions(actions []Action) []Action {
	var failed []Action
	for _, action := range actions {
		if action.State != StateSucceeded {
			failed = append(failed, action)
		}
	}
	return failed
}
