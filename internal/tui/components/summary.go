package components

import (
	"fmt"
	"strings"
)

// SummaryData aggregates plan outcome counts for rendering.
type SummaryData struct {
	Total     int
	Completed int
	Finished  bool
	Cancelled bool
	Failed    string
}

// Summary renders the end-of-plan outcome block.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary. Nothing is rendered while the plan is still
// in flight.
func (s Summary) View() string {
	if !s.data.Finished && !s.data.Cancelled {
		return ""
	}

	var lines []string
	if s.data.Total > 0 {
		lines = append(lines, fmt.Sprintf("Steps: %d/%d completed", s.data.Completed, s.data.Total))
	}

	switch {
	case s.data.Cancelled:
		lines = append(lines, "Plan cancelled")
	case s.data.Failed != "":
		lines = append(lines, fmt.Sprintf("Plan failed on step %s", s.data.Failed))
	case s.data.Finished:
		lines = append(lines, "Plan finished")
	}

	return strings.Join(lines, "\n")
}
