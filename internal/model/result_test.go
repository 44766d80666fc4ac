package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResultConstructors(t *testing.T) {
	t.Parallel()

	completed := Completed()
	require.Equal(t, ResultCompleted, completed.Type)
	require.True(t, completed.IsCompleted())
	require.Empty(t, completed.Message)

	failed := Failed("destroying %d applications timed out", 3)
	require.Equal(t, ResultFailed, failed.Type)
	require.True(t, failed.IsFailed())
	require.Equal(t, "destroying 3 applications timed out", failed.Message)

	skipped := Skipped("no new units to deploy")
	require.True(t, skipped.IsSkipped())
	require.Equal(t, "no new units to deploy", skipped.Message)
}

func TestFailedErrAlwaysCarriesMessage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "boom", FailedErr(errors.New("boom")).Message)
	require.NotEmpty(t, FailedErr(nil).Message)
}

func TestCompletedPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	payload := map[string]any{"id": "Drain 'compute-1'"}
	res := CompletedPayload(payload)
	require.True(t, res.IsCompleted())
	require.Equal(t, payload, res.Payload)
}

func TestReportOrderAndLookup(t *testing.T) {
	t.Parallel()

	var report Report
	report.Append("cordon node", Completed(), 10*time.Millisecond)
	report.Append("drain node", Skipped("already drained"), 0)
	report.Append("delete claims", Failed("pvc delete refused"), time.Second)

	require.Len(t, report.Results, 3)
	require.Equal(t, "cordon node", report.Results[0].Step)
	require.Equal(t, "drain node", report.Results[1].Step)

	entry, ok := report.Get("drain node")
	require.True(t, ok)
	require.True(t, entry.Result.IsSkipped())

	_, ok = report.Get("missing")
	require.False(t, ok)

	failed := report.Failed()
	require.NotNil(t, failed)
	require.Equal(t, "delete claims", failed.Step)
}

func TestReportFailedNilWhenClean(t *testing.T) {
	t.Parallel()

	var report Report
	report.Append("cordon node", Completed(), 0)
	require.Nil(t, report.Failed())
}
