package workload

import (
	"context"
)

// Model identifies a workload-orchestrator model.
type Model struct {
	Name string
	UUID string
}

// Unit is one deployed unit of an application.
type Unit struct {
	Name           string
	MachineID      string
	WorkloadStatus string
	AgentStatus    string
}

// Application is an application and its current units as reported by the
// orchestrator.
type Application struct {
	Name  string
	Units []Unit
}

// Client is the contract the orchestration core consumes for application
// lifecycle. The live control plane sits behind it; in-repo callers only
// ever see these primitives. Lookup methods return a NotFoundError from
// pkg/errors when the target is absent so call sites can distinguish
// absence from transport failure.
type Client interface {
	GetModel(ctx context.Context, name string) (Model, error)
	GetApplication(ctx context.Context, name, model string) (Application, error)
	GetApplicationNames(ctx context.Context, model string) ([]string, error)
	AddUnits(ctx context.Context, app, model string, machineIDs []string) ([]Unit, error)
	RemoveUnit(ctx context.Context, app, unit, model string) error
	ForceRemoveApplication(ctx context.Context, model, app string) error
}

// StatusReader is the read-only slice of Client the convergence helpers
// need.
type StatusReader interface {
	GetApplication(ctx context.Context, name, model string) (Application, error)
}
