package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/droverproject/drover/internal/tui/components"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	title := titleStyle.Render(fmt.Sprintf("Drover • %s", m.title()))
	sections = append(sections, title)

	if len(m.lines) > 0 {
		progress := components.NewProgress(len(m.lines)).View(m.completed)
		sections = append(sections, sectionStyle.Render("Progress"), progress)
		sections = append(sections, sectionStyle.Render("Steps"), m.renderLines())
	}

	summary := components.NewSummary(components.SummaryData{
		Total:     len(m.lines),
		Completed: m.completed,
		Finished:  m.finished,
		Cancelled: m.cancelled,
		Failed:    m.failedStep(),
	}).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderLines() string {
	var lines []string
	for _, line := range m.lines {
		icon := m.statusIcon(line.status)
		text := line.info.Description
		if text == "" {
			text = line.info.Name
		}
		rendered := fmt.Sprintf(" %s %s", icon, text)
		if strings.TrimSpace(line.message) != "" {
			rendered = fmt.Sprintf("%s: %s", rendered, line.message)
		}
		if line.duration > 0 {
			rendered = fmt.Sprintf("%s (%s)", rendered, line.duration.Truncate(10*time.Millisecond))
		}
		lines = append(lines, rendered)
	}
	return strings.Join(lines, "\n")
}

func (m Model) statusIcon(status lineStatus) string {
	switch status {
	case lineCompleted:
		return successStyle.Render("✓")
	case lineRunning:
		return m.spinner.View()
	case lineFailed:
		return failureStyle.Render("✗")
	case lineSkipped:
		return skippedStyle.Render("⊘")
	default:
		return pendingStyle.Render("…")
	}
}

func (m Model) title() string {
	if strings.TrimSpace(m.planName) != "" {
		return m.planName
	}
	return "Plan"
}

func (m Model) failedStep() string {
	if m.report == nil {
		return ""
	}
	if failed := m.report.Failed(); failed != nil {
		return failed.Step
	}
	return ""
}
