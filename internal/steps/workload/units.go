package workload

import (
	"context"
	"fmt"
	"time"

	"github.com/droverproject/drover/internal/iac"
	"github.com/droverproject/drover/internal/logger"
	"github.com/droverproject/drover/internal/model"
	"github.com/droverproject/drover/internal/step"
	"github.com/droverproject/drover/internal/workload"
	droverrors "github.com/droverproject/drover/pkg/errors"
)

// machinesField is the plan variable holding the machine IDs an
// application is placed on.
const machinesField = "machine_ids"

// Desired status sets for scale-out convergence.
var (
	activeWorkload = []string{"active"}
	idleAgent      = []string{"idle"}
)

// Inventory resolves node names to orchestrator machine IDs. The
// deployment config implements it.
type Inventory interface {
	MachineIDs(nodes []string) ([]string, error)
}

type waitFunc func(ctx context.Context, reader workload.StatusReader, target workload.WaitTarget) error

// AddUnitsStep scales an application onto the named nodes by recording
// the union of machine IDs in the plan variables and re-applying.
type AddUnitsStep struct {
	step.Base
	log       *logger.Logger
	engine    iac.Engine
	vars      *iac.VarStore
	client    workload.Client
	inventory Inventory
	app       string
	plan      string
	modelName string
	nodes     []string
	timeout   time.Duration
	interval  time.Duration

	wait waitFunc

	resolved []string
	toDeploy []string
}

// NewAddUnitsStep builds the scale-out step for one application. A zero
// timeout picks DefaultUnitTimeout.
func NewAddUnitsStep(log *logger.Logger, engine iac.Engine, vars *iac.VarStore, client workload.Client, inventory Inventory, app, plan, modelName string, nodes []string, timeout time.Duration) *AddUnitsStep {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = DefaultUnitTimeout
	}
	return &AddUnitsStep{
		Base:      step.NewBase("add-units-"+app, fmt.Sprintf("Add units of %s", app)),
		log:       log,
		engine:    engine,
		vars:      vars,
		client:    client,
		inventory: inventory,
		app:       app,
		plan:      plan,
		modelName: modelName,
		nodes:     nodes,
		timeout:   timeout,
		wait:      workload.WaitUntilDesired,
	}
}

// Skip resolves the target machines and subtracts the ones already
// carrying a unit. Nothing left to place means SKIPPED.
func (s *AddUnitsStep) Skip(ctx context.Context) model.Result {
	ids, err := s.inventory.MachineIDs(s.nodes)
	if err != nil {
		return model.Failed("failed to resolve nodes: %v", err)
	}
	s.resolved = ids

	app, err := s.client.GetApplication(ctx, s.app, s.modelName)
	if err != nil {
		return model.Failed("failed to inspect application %q: %v", s.app, err)
	}

	deployed := make(map[string]struct{}, len(app.Units))
	for _, unit := range app.Units {
		deployed[unit.MachineID] = struct{}{}
	}

	s.toDeploy = s.toDeploy[:0]
	for _, id := range ids {
		if _, ok := deployed[id]; !ok {
			s.toDeploy = append(s.toDeploy, id)
		}
	}

	if len(s.toDeploy) == 0 {
		return model.Skipped("no new units to deploy")
	}
	return model.Completed()
}

// Run records the machine union in the plan variables, applies, and
// waits for the application to settle on active/idle.
func (s *AddUnitsStep) Run(ctx context.Context, status step.Status) model.Result {
	changed, merged, err := s.vars.MergeList(s.plan, machinesField, s.resolved)
	if err != nil {
		return model.Failed("failed to record machines for plan %q: %v", s.plan, err)
	}
	if changed {
		s.log.WithFields(map[string]any{"plan": s.plan, "machines": merged}).Debug("plan machines updated")
	}

	status.Update(fmt.Sprintf("deploying %s to machines %v", s.app, s.toDeploy))
	if err := s.engine.Apply(ctx); err != nil {
		return model.FailedErr(err)
	}

	status.Update(fmt.Sprintf("waiting for %s units to settle", s.app))
	err = s.wait(ctx, s.client, workload.WaitTarget{
		Model:    s.modelName,
		Apps:     []string{s.app},
		Workload: activeWorkload,
		Agent:    idleAgent,
		Timeout:  s.timeout,
		Interval: s.interval,
	})
	if err != nil {
		return model.FailedErr(err)
	}
	return model.CompletedPayload(map[string]any{"machines": append([]string(nil), s.toDeploy...)})
}

// RemoveUnitStep removes the unit an application runs on a given node
// and shrinks the recorded machine list accordingly.
type RemoveUnitStep struct {
	step.Base
	log       *logger.Logger
	vars      *iac.VarStore
	client    workload.Client
	inventory Inventory
	app       string
	plan      string
	modelName string
	node      string
	timeout   time.Duration
	interval  time.Duration

	wait waitFunc

	machineID string
	unitName  string
	survivors []string
}

// NewRemoveUnitStep builds the scale-in step for one application/node
// pair. A zero timeout picks DefaultAppTimeout.
func NewRemoveUnitStep(log *logger.Logger, vars *iac.VarStore, client workload.Client, inventory Inventory, app, plan, modelName, node string, timeout time.Duration) *RemoveUnitStep {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = DefaultAppTimeout
	}
	return &RemoveUnitStep{
		Base:      step.NewBase("remove-unit-"+app, fmt.Sprintf("Remove unit of %s from %s", app, node)),
		log:       log,
		vars:      vars,
		client:    client,
		inventory: inventory,
		app:       app,
		plan:      plan,
		modelName: modelName,
		node:      node,
		timeout:   timeout,
		wait:      workload.WaitUntilDesired,
	}
}

// Skip resolves the unit sitting on the node. No such unit means the
// end-state already holds.
func (s *RemoveUnitStep) Skip(ctx context.Context) model.Result {
	ids, err := s.inventory.MachineIDs([]string{s.node})
	if err != nil {
		return model.Failed("failed to resolve node %q: %v", s.node, err)
	}
	s.machineID = ids[0]

	app, err := s.client.GetApplication(ctx, s.app, s.modelName)
	if err != nil {
		if droverrors.IsNotFound(err) {
			return model.Skipped(fmt.Sprintf("application %s not deployed", s.app))
		}
		return model.Failed("failed to inspect application %q: %v", s.app, err)
	}

	removed := ""
	survivors := make([]string, 0, len(app.Units))
	for _, unit := range app.Units {
		if removed == "" && unit.MachineID == s.machineID {
			removed = unit.Name
			continue
		}
		survivors = append(survivors, unit.Name)
	}
	if removed == "" {
		return model.Skipped(fmt.Sprintf("no unit of %s on node %s", s.app, s.node))
	}

	s.unitName = removed
	s.survivors = survivors
	return model.Completed()
}

// Run removes the unit, shrinks the persisted machine list, and waits
// for the remaining units to settle.
func (s *RemoveUnitStep) Run(ctx context.Context, status step.Status) model.Result {
	status.Update(fmt.Sprintf("removing unit %s", s.unitName))
	if err := s.client.RemoveUnit(ctx, s.app, s.unitName, s.modelName); err != nil {
		return model.Failed("failed to remove unit %q: %v", s.unitName, err)
	}

	if err := s.shrinkMachines(); err != nil {
		return model.Failed("failed to update machines for plan %q: %v", s.plan, err)
	}

	// Convergence tracks units; with none left there is nothing to wait on.
	if len(s.survivors) == 0 {
		return model.Completed()
	}

	status.Update(fmt.Sprintf("waiting for %s to settle", s.app))
	err := s.wait(ctx, s.client, workload.WaitTarget{
		Model:    s.modelName,
		Apps:     []string{s.app},
		Workload: activeWorkload,
		Agent:    idleAgent,
		Units:    s.survivors,
		Timeout:  s.timeout,
		Interval: s.interval,
	})
	if err != nil {
		return model.FailedErr(err)
	}
	return model.Completed()
}

func (s *RemoveUnitStep) shrinkMachines() error {
	vars := s.vars.Get(s.plan)
	current, ok := vars[machinesField]
	if !ok {
		return nil
	}

	var kept []string
	for _, id := range toStrings(current) {
		if id != s.machineID {
			kept = append(kept, id)
		}
	}
	return s.vars.Update(s.plan, map[string]any{machinesField: kept})
}

func toStrings(value any) []string {
	switch list := value.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
