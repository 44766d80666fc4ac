package model

import "time"

// StepReport is one plan-runner entry: the identity of a step and the
// Result its execution (or skip check) produced.
type StepReport struct {
	Step     string
	Result   Result
	Duration time.Duration
}

// Report aggregates a plan run. Entries appear in execution order, one per
// step the runner reached.
type Report struct {
	RunID    string
	Name     string
	Results  []StepReport
	Duration time.Duration
}

// Append records the outcome of one step.
func (r *Report) Append(step string, result Result, d time.Duration) {
	r.Results = append(r.Results, StepReport{Step: step, Result: result, Duration: d})
}

// Get returns the recorded report for a step identity.
func (r *Report) Get(step string) (StepReport, bool) {
	for _, entry := range r.Results {
		if entry.Step == step {
			return entry, true
		}
	}
	return StepReport{}, false
}

// Failed returns the terminal failure entry, if the run had one.
func (r *Report) Failed() *StepReport {
	for i := range r.Results {
		if r.Results[i].Result.IsFailed() {
			return &r.Results[i]
		}
	}
	return nil
}
