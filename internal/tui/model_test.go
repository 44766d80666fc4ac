package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/droverproject/drover/internal/model"
)

func planSteps() []StepInfo {
	return []StepInfo{
		{Name: "cordon-node-1", Description: "Cordon node-1"},
		{Name: "drain-node-1", Description: "Drain node-1"},
	}
}

func startedModel(t *testing.T) Model {
	t.Helper()
	m := NewModel("enter-maintenance", nil)
	updated, _ := m.Update(PlanStartedMsg{Name: "enter-maintenance", Steps: planSteps()})
	return updated.(Model)
}

func TestNewModelInitialisesState(t *testing.T) {
	t.Parallel()

	m := NewModel("enter-maintenance", nil)
	require.False(t, m.Finished())
	require.False(t, m.Cancelled())
	require.Empty(t, m.lines)
	require.NotNil(t, m.Init())
}

func TestModelTracksStepLifecycle(t *testing.T) {
	t.Parallel()

	m := startedModel(t)
	require.Len(t, m.lines, 2)
	require.Equal(t, linePending, m.lines[0].status)

	updated, _ := m.Update(StepStartedMsg{Name: "cordon-node-1", Description: "Cordon node-1"})
	m = updated.(Model)
	require.Equal(t, lineRunning, m.lines[0].status)

	updated, _ = m.Update(StepUpdateMsg{Name: "cordon-node-1", Msg: "marking unschedulable"})
	m = updated.(Model)
	require.Equal(t, "marking unschedulable", m.lines[0].message)

	updated, _ = m.Update(StepFinishedMsg{Name: "cordon-node-1", Result: model.Completed(), Duration: 120 * time.Millisecond})
	m = updated.(Model)
	require.Equal(t, lineCompleted, m.lines[0].status)
	require.Equal(t, 1, m.completed)
}

func TestModelCompletionCountedOncePerStep(t *testing.T) {
	t.Parallel()

	m := startedModel(t)
	for i := 0; i < 3; i++ {
		updated, _ := m.Update(StepFinishedMsg{Name: "cordon-node-1", Result: model.Completed()})
		m = updated.(Model)
	}
	require.Equal(t, 1, m.completed)
}

func TestModelFailureAndSkipStatuses(t *testing.T) {
	t.Parallel()

	m := startedModel(t)
	updated, _ := m.Update(StepFinishedMsg{Name: "cordon-node-1", Result: model.Skipped("already cordoned")})
	m = updated.(Model)
	updated, _ = m.Update(StepFinishedMsg{Name: "drain-node-1", Result: model.Failed("eviction refused")})
	m = updated.(Model)

	require.Equal(t, lineSkipped, m.lines[0].status)
	require.Equal(t, "already cordoned", m.lines[0].message)
	require.Equal(t, lineFailed, m.lines[1].status)
	require.Equal(t, "eviction refused", m.lines[1].message)
}

func TestModelQuitsWhenPlanFinishes(t *testing.T) {
	t.Parallel()

	m := startedModel(t)
	report := &model.Report{Name: "enter-maintenance"}
	updated, cmd := m.Update(PlanFinishedMsg{Report: report})
	m = updated.(Model)

	require.True(t, m.Finished())
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModelInterruptCancelsRun(t *testing.T) {
	t.Parallel()

	cancelled := false
	m := NewModel("enter-maintenance", func() { cancelled = true })

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(Model)
	require.Nil(t, cmd)
	require.True(t, m.Cancelled())
	require.True(t, cancelled)
	require.False(t, m.Finished(), "display waits for the runner to unwind")

	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(Model)
	require.True(t, m.Finished())
	require.NotNil(t, cmd)
}
