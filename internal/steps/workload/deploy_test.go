package workload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/droverproject/drover/internal/step"
	"github.com/droverproject/drover/internal/workload"
)

func TestDeploySkipWhenConfigured(t *testing.T) {
	t.Parallel()

	vars := testVarStore(t)
	require.NoError(t, vars.Update("k8s-plan", map[string]any{"channel": "stable", "scale": "3"}))

	client := newFakeClient(appWithMachines("traefik", "0"))
	s := NewDeployApplicationStep(nil, &fakeEngine{}, vars, client, "traefik", "k8s-plan", "openstack", map[string]any{"channel": "stable"}, time.Minute)

	result := s.Skip(context.Background())
	require.True(t, result.IsSkipped())
	require.Contains(t, result.Message, "already deployed")
}

func TestDeployProceedsWhenMissing(t *testing.T) {
	t.Parallel()

	s := NewDeployApplicationStep(nil, &fakeEngine{}, testVarStore(t), newFakeClient(), "traefik", "k8s-plan", "openstack", map[string]any{"channel": "stable"}, time.Minute)

	require.True(t, s.Skip(context.Background()).IsCompleted())
}

func TestDeployProceedsOnConfigDrift(t *testing.T) {
	t.Parallel()

	vars := testVarStore(t)
	require.NoError(t, vars.Update("k8s-plan", map[string]any{"channel": "edge"}))

	client := newFakeClient(appWithMachines("traefik", "0"))
	s := NewDeployApplicationStep(nil, &fakeEngine{}, vars, client, "traefik", "k8s-plan", "openstack", map[string]any{"channel": "stable"}, time.Minute)

	require.True(t, s.Skip(context.Background()).IsCompleted())
}

func TestDeployRunWritesVarsAndWaitsRollout(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	vars := testVarStore(t)
	client := newFakeClient()
	s := NewDeployApplicationStep(nil, engine, vars, client, "traefik", "k8s-plan", "openstack", map[string]any{"channel": "stable"}, time.Minute)

	var captured workload.WaitTarget
	s.wait = func(_ context.Context, _ workload.StatusReader, target workload.WaitTarget) error {
		captured = target
		return nil
	}

	result := s.Run(context.Background(), step.NopStatus{})
	require.True(t, result.IsCompleted())

	require.Equal(t, 1, engine.applyCalls)
	require.Equal(t, "stable", vars.Get("k8s-plan")["channel"])

	// Fresh deploys tolerate the application not being visible yet.
	require.True(t, captured.Rollout)
	require.Equal(t, []string{"traefik"}, captured.Apps)
}

func TestDeployApplyFailureSurfaces(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{applyErr: errors.New("provider exploded")}
	s := NewDeployApplicationStep(nil, engine, testVarStore(t), newFakeClient(), "traefik", "k8s-plan", "openstack", nil, time.Minute)

	result := s.Run(context.Background(), step.NopStatus{})
	require.True(t, result.IsFailed())
	require.Contains(t, result.Message, "provider exploded")
}
