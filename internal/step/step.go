package step

import (
	"context"

	"github.com/droverproject/drover/internal/model"
)

// Step is the unit of infrastructure change. Implementations are
// constructed with their collaborators, evaluated once through Skip, run
// at most once, and then discarded.
//
// Skip is a side-effect-light probe of whether the desired end-state
// already holds. It may resolve and cache identifiers Run needs, but must
// not mutate external state, and must be safe to call repeatedly.
// It returns:
//
//   - skipped when the target state is already satisfied
//   - failed when a precondition cannot be verified
//   - completed when Run should proceed
//
// Run performs the mutation. It is only called after Skip returned
// completed. Collaborator errors never escape Run; every call site
// translates them into a failed Result with operator-readable context.
type Step interface {
	Name() string
	Description() string
	Skip(ctx context.Context) model.Result
	Run(ctx context.Context, status Status) model.Result
}

// Status is the progress sink a running step reports through.
type Status interface {
	Update(msg string)
}

// NopStatus discards progress updates. Used by headless runs and tests.
type NopStatus struct{}

// Update implements Status.
func (NopStatus) Update(string) {}

// Base carries step identity. Concrete steps embed it and supply the two
// lifecycle methods.
type Base struct {
	name        string
	description string
}

// NewBase constructs the identity part of a step.
func NewBase(name, description string) Base {
	return Base{name: name, description: description}
}

// Name returns the short, stable identity used as the report key.
func (b Base) Name() string { return b.name }

// Description returns the one-line operator text.
func (b Base) Description() string { return b.description }
