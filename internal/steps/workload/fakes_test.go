package workload

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/droverproject/drover/internal/iac"
	"github.com/droverproject/drover/internal/workload"
	droverrors "github.com/droverproject/drover/pkg/errors"
)

type fakeEngine struct {
	mu sync.Mutex

	state    iac.State
	stateErr error

	applyErr   error
	destroyErr error

	applyCalls   int
	destroyCalls int
}

func (f *fakeEngine) Apply(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyCalls++
	return f.applyErr
}

func (f *fakeEngine) Destroy(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyCalls++
	return f.destroyErr
}

func (f *fakeEngine) PullState(context.Context) (iac.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.stateErr
}

type fakeClient struct {
	mu sync.Mutex

	apps map[string]workload.Application

	namesErr error
	appErr   error

	removedUnits []string
	forced       []string
	forceErr     map[string]error
	removeErr    error
}

func newFakeClient(apps ...workload.Application) *fakeClient {
	client := &fakeClient{apps: make(map[string]workload.Application)}
	for _, app := range apps {
		client.apps[app.Name] = app
	}
	return client
}

func (f *fakeClient) GetModel(_ context.Context, name string) (workload.Model, error) {
	return workload.Model{Name: name, UUID: "model-" + name}, nil
}

func (f *fakeClient) GetApplication(_ context.Context, name, _ string) (workload.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appErr != nil {
		return workload.Application{}, f.appErr
	}
	app, ok := f.apps[name]
	if !ok {
		return workload.Application{}, droverrors.NewNotFoundError("application", name, nil)
	}
	return app, nil
}

func (f *fakeClient) GetApplicationNames(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.namesErr != nil {
		return nil, f.namesErr
	}
	names := make([]string, 0, len(f.apps))
	for name := range f.apps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeClient) AddUnits(_ context.Context, _, _ string, _ []string) ([]workload.Unit, error) {
	return nil, nil
}

func (f *fakeClient) RemoveUnit(_ context.Context, app, unit, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removedUnits = append(f.removedUnits, unit)

	stored := f.apps[app]
	var kept []workload.Unit
	for _, u := range stored.Units {
		if u.Name != unit {
			kept = append(kept, u)
		}
	}
	stored.Units = kept
	f.apps[app] = stored
	return nil
}

func (f *fakeClient) ForceRemoveApplication(_ context.Context, _, app string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forced = append(f.forced, app)
	if err, ok := f.forceErr[app]; ok {
		return err
	}
	delete(f.apps, app)
	return nil
}

type fakeInventory struct {
	machines map[string]string
}

func (f *fakeInventory) MachineIDs(nodes []string) ([]string, error) {
	ids := make([]string, 0, len(nodes))
	for _, node := range nodes {
		id, ok := f.machines[node]
		if !ok {
			return nil, droverrors.NewNotFoundError("node", node, nil)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func testVarStore(t *testing.T) *iac.VarStore {
	t.Helper()
	store, err := iac.NewVarStore(filepath.Join(t.TempDir(), "vars.json"))
	require.NoError(t, err)
	return store
}

func appWithMachines(name string, machines ...string) workload.Application {
	app := workload.Application{Name: name}
	for _, machine := range machines {
		app.Units = append(app.Units, workload.Unit{
			Name:           name + "/" + machine,
			MachineID:      machine,
			WorkloadStatus: "active",
			AgentStatus:    "idle",
		})
	}
	return app
}
