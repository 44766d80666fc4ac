package iac

import "context"

// Resource is one managed entry in pulled declarative state.
type Resource struct {
	Module string `json:"module,omitempty"`
	Mode   string `json:"mode,omitempty"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

// State is the declarative engine's view of what it manages.
type State struct {
	Resources []Resource `json:"resources"`
}

// ResourcesOfType returns the managed resources with the given type.
func (s State) ResourcesOfType(resourceType string) []Resource {
	var matched []Resource
	for _, resource := range s.Resources {
		if resource.Type == resourceType {
			matched = append(matched, resource)
		}
	}
	return matched
}

// Empty reports whether the state tracks nothing.
func (s State) Empty() bool {
	return len(s.Resources) == 0
}

// Engine is the declarative infrastructure engine contract. Apply and
// Destroy converge the plan towards (or away from) its configuration;
// failures surface as ApplyError and are never retried here.
type Engine interface {
	Apply(ctx context.Context) error
	Destroy(ctx context.Context) error
	PullState(ctx context.Context) (State, error)
}
