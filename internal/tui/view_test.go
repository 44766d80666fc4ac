package tui

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/droverproject/drover/internal/model"
)

func TestViewRendersBasicLayout(t *testing.T) {
	t.Parallel()

	m := startedModel(t)
	updated, _ := m.Update(StepFinishedMsg{Name: "cordon-node-1", Result: model.Completed()})
	m = updated.(Model)
	updated, _ = m.Update(StepStartedMsg{Name: "drain-node-1", Description: "Drain node-1"})
	m = updated.(Model)

	view := m.View()
	require.Contains(t, view, "enter-maintenance")
	require.Contains(t, view, "Cordon node-1")
	require.Contains(t, view, "Drain node-1")
	require.Contains(t, view, "1/2")
}

func TestViewShowsStepMessages(t *testing.T) {
	t.Parallel()

	m := startedModel(t)
	updated, _ := m.Update(StepFinishedMsg{Name: "drain-node-1", Result: model.Skipped("already drained")})
	m = updated.(Model)

	view := m.View()
	require.Contains(t, view, "already drained")
}

func TestViewShowsSummaryWhenFinished(t *testing.T) {
	t.Parallel()

	m := startedModel(t)
	updated, _ := m.Update(StepFinishedMsg{Name: "cordon-node-1", Result: model.Completed()})
	m = updated.(Model)
	updated, _ = m.Update(StepFinishedMsg{Name: "drain-node-1", Result: model.Failed("eviction refused")})
	m = updated.(Model)

	report := &model.Report{Name: "enter-maintenance"}
	report.Append("cordon-node-1", model.Completed(), 0)
	report.Append("drain-node-1", model.Failed("eviction refused"), 0)
	updated, _ = m.Update(PlanFinishedMsg{Report: report})
	m = updated.(Model)

	view := m.View()
	require.Contains(t, view, "Summary")
	require.Contains(t, view, "Steps: 2/2 completed")
	require.Contains(t, view, "Plan failed on step drain-node-1")
}

func TestStatusIcons(t *testing.T) {
	t.Parallel()

	m := NewModel("plan", nil)
	tests := []struct {
		name     string
		status   lineStatus
		expected string
	}{
		{"completed shows checkmark", lineCompleted, "✓"},
		{"failed shows cross", lineFailed, "✗"},
		{"skipped shows circle-slash", lineSkipped, "⊘"},
		{"pending shows ellipsis", linePending, "…"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Contains(t, m.statusIcon(tt.status), tt.expected)
		})
	}
}
