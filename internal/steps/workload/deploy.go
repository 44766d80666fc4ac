package workload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/droverproject/drover/internal/iac"
	"github.com/droverproject/drover/internal/logger"
	"github.com/droverproject/drover/internal/model"
	"github.com/droverproject/drover/internal/step"
	"github.com/droverproject/drover/internal/workload"
	droverrors "github.com/droverproject/drover/pkg/errors"
)

// DeployApplicationStep deploys or reconfigures one application through
// the declarative engine and waits for it to come up.
type DeployApplicationStep struct {
	step.Base
	log       *logger.Logger
	engine    iac.Engine
	vars      *iac.VarStore
	client    workload.Client
	app       string
	plan      string
	modelName string
	appVars   map[string]any
	timeout   time.Duration
	interval  time.Duration

	wait waitFunc
}

// NewDeployApplicationStep builds the deploy step. appVars are the plan
// variables that describe the desired configuration. A zero timeout
// picks DefaultAppTimeout.
func NewDeployApplicationStep(log *logger.Logger, engine iac.Engine, vars *iac.VarStore, client workload.Client, app, plan, modelName string, appVars map[string]any, timeout time.Duration) *DeployApplicationStep {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = DefaultAppTimeout
	}
	return &DeployApplicationStep{
		Base:      step.NewBase("deploy-"+app, fmt.Sprintf("Deploy %s", app)),
		log:       log,
		engine:    engine,
		vars:      vars,
		client:    client,
		app:       app,
		plan:      plan,
		modelName: modelName,
		appVars:   appVars,
		timeout:   timeout,
		wait:      workload.WaitUntilDesired,
	}
}

// Skip reports SKIPPED when the application exists and the persisted
// plan variables already carry the desired configuration.
func (s *DeployApplicationStep) Skip(ctx context.Context) model.Result {
	_, err := s.client.GetApplication(ctx, s.app, s.modelName)
	if err != nil {
		if droverrors.IsNotFound(err) {
			return model.Completed()
		}
		return model.Failed("failed to inspect application %q: %v", s.app, err)
	}

	persisted := s.vars.Get(s.plan)
	for key, want := range s.appVars {
		if !sameValue(persisted[key], want) {
			return model.Completed()
		}
	}
	return model.Skipped(fmt.Sprintf("%s already deployed", s.app))
}

// Run writes the configuration, applies the plan, and waits for the
// application to reach active/idle. The rollout window tolerates the
// application not being visible yet.
func (s *DeployApplicationStep) Run(ctx context.Context, status step.Status) model.Result {
	if err := s.vars.Update(s.plan, s.appVars); err != nil {
		return model.Failed("failed to record configuration for plan %q: %v", s.plan, err)
	}

	status.Update(fmt.Sprintf("deploying %s", s.app))
	if err := s.engine.Apply(ctx); err != nil {
		return model.FailedErr(err)
	}

	status.Update(fmt.Sprintf("waiting for %s to come up", s.app))
	err := s.wait(ctx, s.client, workload.WaitTarget{
		Model:    s.modelName,
		Apps:     []string{s.app},
		Workload: activeWorkload,
		Agent:    idleAgent,
		Timeout:  s.timeout,
		Interval: s.interval,
		Rollout:  true,
	})
	if err != nil {
		return model.FailedErr(err)
	}
	return model.Completed()
}

// sameValue compares two values through their JSON form, so persisted
// []any round-trips match the typed originals.
func sameValue(a, b any) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}
