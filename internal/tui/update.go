package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/droverproject/drover/internal/model"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PlanStartedMsg:
		if msg.Name != "" {
			m.planName = msg.Name
		}
		for _, info := range msg.Steps {
			m.ensureLine(info)
		}
		return m, nil

	case StepStartedMsg:
		i := m.ensureLine(StepInfo{Name: msg.Name, Description: msg.Description})
		m.lines[i].status = lineRunning
		m.lines[i].message = ""
		return m, nil

	case StepUpdateMsg:
		if i, ok := m.index[msg.Name]; ok {
			m.lines[i].message = msg.Msg
		}
		return m, nil

	case StepFinishedMsg:
		i := m.ensureLine(StepInfo{Name: msg.Name})
		line := &m.lines[i]
		if line.status != lineCompleted && line.status != lineFailed && line.status != lineSkipped {
			m.completed++
		}
		line.status = resultStatus(msg.Result)
		line.message = msg.Result.Message
		line.duration = msg.Duration
		return m, nil

	case PlanFinishedMsg:
		m.finished = true
		m.report = msg.Report
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			// Second interrupt abandons the display without waiting for
			// the runner to unwind.
			if m.cancelled {
				m.finished = true
				return m, tea.Quit
			}
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
	}

	return m, nil
}

func resultStatus(res model.Result) lineStatus {
	switch {
	case res.IsFailed():
		return lineFailed
	case res.IsSkipped():
		return lineSkipped
	default:
		return lineCompleted
	}
}
