package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/droverproject/drover/internal/model"
	"github.com/droverproject/drover/internal/step"
)

// Sender is the surface the reporter feeds events into. *tea.Program
// satisfies it; tests substitute a recorder.
type Sender interface {
	Send(msg tea.Msg)
}

// Reporter forwards plan runner events into a Bubbletea program. Send is
// safe to call from the runner goroutine while the program runs on its
// own.
type Reporter struct {
	target Sender
}

// NewReporter constructs a Reporter around a running program.
func NewReporter(target Sender) *Reporter {
	return &Reporter{target: target}
}

// PlanStarted announces the step list.
func (r *Reporter) PlanStarted(name string, steps []step.Step) {
	infos := make([]StepInfo, 0, len(steps))
	for _, s := range steps {
		infos = append(infos, StepInfo{Name: s.Name(), Description: s.Description()})
	}
	r.target.Send(PlanStartedMsg{Name: name, Steps: infos})
}

// StepStarted marks a step as running.
func (r *Reporter) StepStarted(s step.Step) {
	r.target.Send(StepStartedMsg{Name: s.Name(), Description: s.Description()})
}

// StepUpdate forwards in-flight progress text.
func (r *Reporter) StepUpdate(stepName, msg string) {
	r.target.Send(StepUpdateMsg{Name: stepName, Msg: msg})
}

// StepFinished reports a step outcome.
func (r *Reporter) StepFinished(stepName string, res model.Result, d time.Duration) {
	r.target.Send(StepFinishedMsg{Name: stepName, Result: res, Duration: d})
}

// PlanFinished ends the display.
func (r *Reporter) PlanFinished(report *model.Report) {
	r.target.Send(PlanFinishedMsg{Report: report})
}

// Run drives a plan under the interactive display. The callback runs on
// its own goroutine with a Reporter wired into the program and a context
// that is cancelled when the operator interrupts the display. Run returns
// the callback's error once the display has shut down.
func Run(ctx context.Context, planName string, fn func(ctx context.Context, reporter *Reporter) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(NewModel(planName, cancel))

	errCh := make(chan error, 1)
	go func() {
		errCh <- fn(ctx, NewReporter(program))
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-errCh
		return err
	}
	return <-errCh
}
