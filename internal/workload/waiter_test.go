package workload

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	droverrors "github.com/droverproject/drover/pkg/errors"
)

type readerFunc func(ctx context.Context, name, model string) (Application, error)

func (f readerFunc) GetApplication(ctx context.Context, name, model string) (Application, error) {
	return f(ctx, name, model)
}

func activeIdleApp(name string) Application {
	return Application{Name: name, Units: []Unit{
		{Name: name + "/0", WorkloadStatus: "active", AgentStatus: "idle"},
	}}
}

func target(apps ...string) WaitTarget {
	return WaitTarget{
		Model:    "controller",
		Apps:     apps,
		Workload: []string{"active"},
		Agent:    []string{"idle"},
		Timeout:  time.Second,
		Interval: 5 * time.Millisecond,
	}
}

func TestWaitUntilDesiredConverges(t *testing.T) {
	t.Parallel()

	reader := readerFunc(func(ctx context.Context, name, model string) (Application, error) {
		return activeIdleApp(name), nil
	})

	err := WaitUntilDesired(context.Background(), reader, target("openstack", "hypervisor"))
	require.NoError(t, err)
}

func TestWaitRequiresBothStatusesSimultaneously(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	polls := 0
	reader := readerFunc(func(ctx context.Context, name, model string) (Application, error) {
		mu.Lock()
		defer mu.Unlock()
		polls++
		if polls < 3 {
			// Workload already active but the agent is still busy.
			return Application{Name: name, Units: []Unit{
				{Name: name + "/0", WorkloadStatus: "active", AgentStatus: "executing"},
			}}, nil
		}
		return activeIdleApp(name), nil
	})

	err := WaitUntilDesired(context.Background(), reader, target("openstack"))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, polls, 3)
}

func TestWaitTimesOutAtOrAfterBudget(t *testing.T) {
	t.Parallel()

	reader := readerFunc(func(ctx context.Context, name, model string) (Application, error) {
		return Application{Name: name, Units: []Unit{
			{Name: name + "/0", WorkloadStatus: "waiting", AgentStatus: "executing"},
		}}, nil
	})

	tgt := target("openstack")
	tgt.Timeout = 60 * time.Millisecond

	start := time.Now()
	err := WaitUntilDesired(context.Background(), reader, tgt)
	elapsed := time.Since(start)

	require.True(t, droverrors.IsTimeout(err), "expected timeout, got %v", err)
	require.GreaterOrEqual(t, elapsed, tgt.Timeout)
}

func TestWaitMissingApplicationFailsFastInStrictMode(t *testing.T) {
	t.Parallel()

	reader := readerFunc(func(ctx context.Context, name, model string) (Application, error) {
		return Application{}, droverrors.NewNotFoundError("application", name, nil)
	})

	start := time.Now()
	err := WaitUntilDesired(context.Background(), reader, target("ghost"))

	require.True(t, droverrors.IsNotFound(err))
	require.False(t, droverrors.IsTimeout(err))
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestWaitRolloutModeToleratesLateApplications(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	polls := 0
	reader := readerFunc(func(ctx context.Context, name, model string) (Application, error) {
		mu.Lock()
		defer mu.Unlock()
		polls++
		if polls < 3 {
			return Application{}, droverrors.NewNotFoundError("application", name, nil)
		}
		return activeIdleApp(name), nil
	})

	tgt := target("late")
	tgt.Rollout = true
	require.NoError(t, WaitUntilDesired(context.Background(), reader, tgt))
}

func TestWaitUnitSubsetIgnoresOtherUnits(t *testing.T) {
	t.Parallel()

	reader := readerFunc(func(ctx context.Context, name, model string) (Application, error) {
		return Application{Name: name, Units: []Unit{
			{Name: name + "/0", WorkloadStatus: "active", AgentStatus: "idle"},
			{Name: name + "/1", WorkloadStatus: "error", AgentStatus: "failed"},
		}}, nil
	})

	tgt := target("partial")
	tgt.Units = []string{"partial/0"}
	require.NoError(t, WaitUntilDesired(context.Background(), reader, tgt))
}

func TestWaitRejectsNonPositiveTimeout(t *testing.T) {
	t.Parallel()

	reader := readerFunc(func(ctx context.Context, name, model string) (Application, error) {
		return activeIdleApp(name), nil
	})

	tgt := target("openstack")
	tgt.Timeout = 0
	err := WaitUntilDesired(context.Background(), reader, tgt)

	var validationErr *droverrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestWaitNoAppsIsImmediate(t *testing.T) {
	t.Parallel()

	err := WaitUntilDesired(context.Background(), nil, WaitTarget{Timeout: time.Second})
	require.NoError(t, err)
}

func TestWaitSurfacesHardReaderErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	reader := readerFunc(func(ctx context.Context, name, model string) (Application, error) {
		return Application{}, boom
	})

	err := WaitUntilDesired(context.Background(), reader, target("openstack"))
	require.ErrorIs(t, err, boom)
}

func TestWaitAppsGoneReturnsWhenAllDisappear(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	polls := 0
	reader := readerFunc(func(ctx context.Context, name, model string) (Application, error) {
		mu.Lock()
		defer mu.Unlock()
		polls++
		if polls <= 2 {
			return Application{Name: name}, nil
		}
		return Application{}, droverrors.NewNotFoundError("application", name, nil)
	})

	err := WaitAppsGone(context.Background(), reader, "controller", []string{"stuck"}, time.Second, 5*time.Millisecond)
	require.NoError(t, err)
}

func TestWaitAppsGoneTimesOut(t *testing.T) {
	t.Parallel()

	reader := readerFunc(func(ctx context.Context, name, model string) (Application, error) {
		return Application{Name: name}, nil
	})

	start := time.Now()
	err := WaitAppsGone(context.Background(), reader, "controller", []string{"stuck"}, 50*time.Millisecond, 5*time.Millisecond)

	require.True(t, droverrors.IsTimeout(err))
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitAppsGoneEmptyListIsImmediate(t *testing.T) {
	t.Parallel()

	require.NoError(t, WaitAppsGone(context.Background(), nil, "controller", nil, time.Second, 0))
}
