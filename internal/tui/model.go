// Package tui renders plan execution as an interactive terminal display.
// A Reporter feeds runner events into the Bubbletea program; the model
// tracks one line per step and quits once the plan finishes.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/droverproject/drover/internal/model"
)

// StepInfo identifies one plan step for display.
type StepInfo struct {
	Name        string
	Description string
}

// PlanStartedMsg announces the plan and its step list.
type PlanStartedMsg struct {
	Name  string
	Steps []StepInfo
}

// StepStartedMsg marks a step as running.
type StepStartedMsg struct {
	Name        string
	Description string
}

// StepUpdateMsg carries in-flight progress text for a running step.
type StepUpdateMsg struct {
	Name string
	Msg  string
}

// StepFinishedMsg reports a step outcome.
type StepFinishedMsg struct {
	Name     string
	Result   model.Result
	Duration time.Duration
}

// PlanFinishedMsg ends the display.
type PlanFinishedMsg struct {
	Report *model.Report
}

type lineStatus int

const (
	linePending lineStatus = iota
	lineRunning
	lineCompleted
	lineFailed
	lineSkipped
)

type stepLine struct {
	info     StepInfo
	status   lineStatus
	message  string
	duration time.Duration
}

// Model contains the Bubbletea state for a single plan run.
type Model struct {
	planName  string
	cancel    context.CancelFunc
	spinner   spinner.Model
	lines     []stepLine
	index     map[string]int
	completed int
	finished  bool
	cancelled bool
	report    *model.Report
}

// NewModel constructs the display state for a plan. cancel is invoked on
// the first interrupt so the runner unwinds; the display itself stays up
// until the plan reports it has finished.
func NewModel(planName string, cancel context.CancelFunc) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runningStyle
	return Model{
		planName: planName,
		cancel:   cancel,
		spinner:  s,
		index:    make(map[string]int),
	}
}

// Init starts the spinner tick loop.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Finished reports whether the plan has ended.
func (m Model) Finished() bool {
	return m.finished
}

// Cancelled reports whether the operator interrupted the run.
func (m Model) Cancelled() bool {
	return m.cancelled
}

func (m *Model) ensureLine(info StepInfo) int {
	if i, ok := m.index[info.Name]; ok {
		if info.Description != "" {
			m.lines[i].info.Description = info.Description
		}
		return i
	}
	m.lines = append(m.lines, stepLine{info: info})
	m.index[info.Name] = len(m.lines) - 1
	return len(m.lines) - 1
}
