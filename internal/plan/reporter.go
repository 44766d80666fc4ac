package plan

import (
	"time"

	"github.com/droverproject/drover/internal/logger"
	"github.com/droverproject/drover/internal/model"
	"github.com/droverproject/drover/internal/step"
)

// Reporter receives plan progress events. Implementations must be safe
// for calls from the runner goroutine only; step Update callbacks arrive
// on the same goroutine as the running step.
type Reporter interface {
	PlanStarted(name string, steps []step.Step)
	StepStarted(s step.Step)
	StepUpdate(stepName, msg string)
	StepFinished(stepName string, res model.Result, d time.Duration)
	PlanFinished(report *model.Report)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) PlanStarted(string, []step.Step)                  {}
func (NopReporter) StepStarted(step.Step)                            {}
func (NopReporter) StepUpdate(string, string)                        {}
func (NopReporter) StepFinished(string, model.Result, time.Duration) {}
func (NopReporter) PlanFinished(*model.Report)                       {}

// LogReporter writes plan progress as log lines. It is the non-interactive
// fallback when stdout is not a terminal.
type LogReporter struct {
	log *logger.Logger
}

// NewLogReporter constructs a LogReporter.
func NewLogReporter(log *logger.Logger) *LogReporter {
	return &LogReporter{log: log}
}

// PlanStarted implements Reporter.
func (r *LogReporter) PlanStarted(name string, steps []step.Step) {
	r.log.WithFields(map[string]any{"steps": len(steps)}).Info("running plan " + name)
}

// StepStarted implements Reporter.
func (r *LogReporter) StepStarted(s step.Step) {
	r.log.Info(s.Description())
}

// StepUpdate implements Reporter.
func (r *LogReporter) StepUpdate(stepName, msg string) {
	r.log.WithFields(map[string]any{"step": stepName}).Debug(msg)
}

// StepFinished implements Reporter.
func (r *LogReporter) StepFinished(stepName string, res model.Result, d time.Duration) {
	fields := map[string]any{"step": stepName, "result": string(res.Type), "duration": d.Round(time.Millisecond).String()}
	switch {
	case res.IsFailed():
		r.log.WithFields(fields).Warn(res.Message)
	case res.IsSkipped() && res.Message != "":
		r.log.WithFields(fields).Info(res.Message)
	default:
		r.log.WithFields(fields).Info("done")
	}
}

// PlanFinished implements Reporter.
func (r *LogReporter) PlanFinished(report *model.Report) {
	if failed := report.Failed(); failed != nil {
		r.log.Error(nil, "plan "+report.Name+" failed on step "+failed.Step)
		return
	}
	r.log.Info("plan " + report.Name + " finished")
}
