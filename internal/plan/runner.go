package plan

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/droverproject/drover/internal/logger"
	"github.com/droverproject/drover/internal/model"
	"github.com/droverproject/drover/internal/step"
	droverrors "github.com/droverproject/drover/pkg/errors"
)

// Runner executes an ordered list of steps fail-fast. Steps run strictly
// sequentially; the first failed skip check or failed run halts the plan,
// because later steps commonly depend on earlier ones having converged.
type Runner struct {
	log      *logger.Logger
	reporter Reporter
}

// NewRunner constructs a Runner. A nil reporter falls back to a logging
// reporter derived from log.
func NewRunner(log *logger.Logger, reporter Reporter) *Runner {
	if reporter == nil {
		reporter = NewLogReporter(log)
	}
	return &Runner{log: log, reporter: reporter}
}

// Run drives every step through its skip check and, when needed, its
// execution. The returned Report holds one entry per step reached, in
// order. The error is a StepError naming the failing step, nil when the
// whole plan completed or skipped.
func (r *Runner) Run(ctx context.Context, name string, steps []step.Step) (*model.Report, error) {
	report := &model.Report{
		RunID: uuid.NewString(),
		Name:  name,
	}

	log := r.log.WithFields(map[string]any{"run_id": report.RunID, "plan": name})
	log.Debug("starting plan")
	start := time.Now()
	r.reporter.PlanStarted(name, steps)

	for _, s := range steps {
		if _, err := r.runStep(ctx, log, s, report); err != nil {
			report.Duration = time.Since(start)
			r.reporter.PlanFinished(report)
			return report, err
		}
	}

	report.Duration = time.Since(start)
	log.Debug("plan finished")
	r.reporter.PlanFinished(report)
	return report, nil
}

func (r *Runner) runStep(ctx context.Context, log *logger.Logger, s step.Step, report *model.Report) (model.Result, error) {
	stepLog := log.WithFields(map[string]any{"step": s.Name()})
	r.reporter.StepStarted(s)
	begin := time.Now()

	res := s.Skip(ctx)
	switch {
	case res.IsSkipped():
		stepLog.Debug("step skipped")
		report.Append(s.Name(), res, time.Since(begin))
		r.reporter.StepFinished(s.Name(), res, time.Since(begin))
		return res, nil
	case res.IsFailed():
		stepLog.Error(nil, "step precondition failed: "+res.Message)
		report.Append(s.Name(), res, time.Since(begin))
		r.reporter.StepFinished(s.Name(), res, time.Since(begin))
		return res, droverrors.NewStepError(s.Name(), stepFailure(res))
	}

	status := &reporterStatus{reporter: r.reporter, step: s.Name()}
	res = s.Run(ctx, status)
	elapsed := time.Since(begin)
	report.Append(s.Name(), res, elapsed)
	r.reporter.StepFinished(s.Name(), res, elapsed)

	if res.IsFailed() {
		stepLog.Error(nil, "step failed: "+res.Message)
		return res, droverrors.NewStepError(s.Name(), stepFailure(res))
	}

	stepLog.Debug("step completed")
	return res, nil
}

// reporterStatus adapts the reporter into the progress sink handed to a
// running step.
type reporterStatus struct {
	reporter Reporter
	step     string
}

func (s *reporterStatus) Update(msg string) {
	s.reporter.StepUpdate(s.step, msg)
}

type resultError struct {
	message string
}

func (e *resultError) Error() string { return e.message }

func stepFailure(res model.Result) error {
	return &resultError{message: res.Message}
}
