package maintenance

import (
	"context"
	"fmt"

	"github.com/droverproject/drover/internal/model"
	"github.com/droverproject/drover/internal/step"
)

type dryRunStep struct {
	step.Step
	id string
}

// DryRun wraps a step so that, when enabled, it reports what it would
// have done instead of doing it. The wrapped step keeps its identity;
// only the phases are short-circuited.
func DryRun(inner step.Step, verb, node string, enabled bool) step.Step {
	if !enabled {
		return inner
	}
	return &dryRunStep{
		Step: inner,
		id:   fmt.Sprintf("%s '%s'", verb, node),
	}
}

func (s *dryRunStep) Skip(context.Context) model.Result {
	return model.Completed()
}

func (s *dryRunStep) Run(context.Context, step.Status) model.Result {
	return model.CompletedPayload(map[string]any{"id": s.id})
}
