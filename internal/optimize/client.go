// Package optimize talks to the cloud's optimization service, which
// plans workload rebalancing and host maintenance as audits. An audit
// produces a list of actions the service then applies.
package optimize

import "context"

// Audit states reported by the optimization service. An audit keeps
// moving until it reaches one of the terminal states.
const (
	StateSucceeded  = "SUCCEEDED"
	StateFailed     = "FAILED"
	StateCancelled  = "CANCELLED"
	StateSuperseded = "SUPERSEDED"
)

// IsTerminal reports whether an audit or action state is final.
func IsTerminal(state string) bool {
	switch state {
	case StateSucceeded, StateFailed, StateCancelled, StateSuperseded:
		return true
	}
	return false
}

// AuditTemplate names a predefined goal/strategy pair.
type AuditTemplate struct {
	UUID     string
	Name     string
	Goal     string
	Strategy string
}

// Audit is one planning run created from a template.
type Audit struct {
	UUID  string
	State string
}

// Succeeded reports whether the audit reached its goal.
func (a *Audit) Succeeded() bool {
	return a != nil && a.State == StateSucceeded
}

// Action is a single change the optimization service planned, such as
// migrating an instance off a host.
type Action struct {
	UUID        string
	State       string
	Description string
}

// Client is the surface of the optimization service the orchestration
// core depends on.
type Client interface {
	// GetAuditTemplate resolves a template by name. Absence surfaces as
	// NotFoundError.
	GetAuditTemplate(ctx context.Context, name string) (*AuditTemplate, error)

	// CreateAudit starts a new audit from a template. Parameters are
	// strategy inputs such as the host to empty.
	CreateAudit(ctx context.Context, template string, parameters map[string]any) (*Audit, error)

	// GetAudit fetches the current state of an audit.
	GetAudit(ctx context.Context, uuid string) (*Audit, error)

	// ExecAudit triggers execution of the audit's planned actions.
	ExecAudit(ctx context.Context, auditUUID string) error

	// ListActions returns the actions planned by an audit, whatever
	// state they are in.
	ListActions(ctx context.Context, auditUUID string) ([]Action, error)
}
