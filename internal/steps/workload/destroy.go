// Package workload holds the steps that reshape applications on the
// workload orchestrator through the declarative engine.
package workload

import (
	"context"
	"time"

	"github.com/droverproject/drover/internal/iac"
	"github.com/droverproject/drover/internal/logger"
	"github.com/droverproject/drover/internal/model"
	"github.com/droverproject/drover/internal/step"
	"github.com/droverproject/drover/internal/workload"
	droverrors "github.com/droverproject/drover/pkg/errors"
)

// Wait budgets. Callers override per deployment; zero picks these.
const (
	DefaultAppTimeout        = 15 * time.Minute
	DefaultControlAppTimeout = 3 * time.Minute
	DefaultUnitTimeout       = 20 * time.Minute
	DefaultDestroyTimeout    = 15 * time.Minute
)

// gracefulFactor splits a teardown budget between the declarative
// destroy wait and the forced-removal wait.
const gracefulFactor = 0.8

// appResourceType is the engine resource type representing a managed
// application.
const appResourceType = "juju_application"

type waitGoneFunc func(ctx context.Context, reader workload.StatusReader, model string, apps []string, timeout, interval time.Duration) error

// DestroyApplicationsStep tears applications down, first declaratively,
// then by force for whatever survives the graceful window.
type DestroyApplicationsStep struct {
	step.Base
	log       *logger.Logger
	engine    iac.Engine
	client    workload.Client
	modelName string
	apps      []string
	timeout   time.Duration
	interval  time.Duration

	waitGone waitGoneFunc

	remaining []string
}

// NewDestroyApplicationsStep builds the teardown step. apps limits the
// teardown to the named applications; empty means every application
// visible in the model. A zero timeout picks DefaultDestroyTimeout.
func NewDestroyApplicationsStep(log *logger.Logger, engine iac.Engine, client workload.Client, modelName string, apps []string, timeout time.Duration) *DestroyApplicationsStep {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = DefaultDestroyTimeout
	}
	return &DestroyApplicationsStep{
		Base:      step.NewBase("destroy-applications", "Tear down applications"),
		log:       log,
		engine:    engine,
		client:    client,
		modelName: modelName,
		apps:      apps,
		timeout:   timeout,
		waitGone:  workload.WaitAppsGone,
	}
}

// Skip reports SKIPPED when neither the engine state nor the model holds
// any of the targeted applications.
func (s *DestroyApplicationsStep) Skip(ctx context.Context) model.Result {
	state, err := s.engine.PullState(ctx)
	if err != nil {
		return model.Failed("failed to pull plan state: %v", err)
	}
	managed := len(state.ResourcesOfType(appResourceType))

	live, err := s.client.GetApplicationNames(ctx, s.modelName)
	if err != nil {
		return model.Failed("failed to list applications in model %q: %v", s.modelName, err)
	}
	s.remaining = s.targeted(live)

	if managed == 0 && len(s.remaining) == 0 {
		return model.Skipped("applications already removed")
	}
	return model.Completed()
}

// Run destroys declaratively, waits out the graceful share of the
// budget, then force-removes stragglers and waits out the rest.
func (s *DestroyApplicationsStep) Run(ctx context.Context, status step.Status) model.Result {
	status.Update("destroying applications")
	if err := s.engine.Destroy(ctx); err != nil {
		// The forced path below still has a chance to finish the job.
		s.log.WithFields(map[string]any{"error": err.Error()}).Warn("declarative destroy failed, falling back to forced removal")
	}

	graceful := time.Duration(float64(s.timeout) * gracefulFactor)
	forceful := s.timeout - graceful

	err := s.waitGone(ctx, s.client, s.modelName, s.remaining, graceful, s.interval)
	if err == nil {
		return model.Completed()
	}
	if !droverrors.IsTimeout(err) {
		return model.Failed("failed waiting for applications to go away: %v", err)
	}

	status.Update("forcing application removal")
	for _, app := range s.present(ctx) {
		if err := s.client.ForceRemoveApplication(ctx, s.modelName, app); err != nil {
			s.log.WithFields(map[string]any{"application": app, "error": err.Error()}).Warn("forced removal failed")
		}
	}

	err = s.waitGone(ctx, s.client, s.modelName, s.remaining, forceful, s.interval)
	if err == nil {
		return model.Completed()
	}
	if droverrors.IsTimeout(err) {
		return model.Failed("timed out destroying applications; remove them manually")
	}
	return model.Failed("failed waiting for applications to go away: %v", err)
}

// targeted filters the live application list down to the step's scope.
func (s *DestroyApplicationsStep) targeted(live []string) []string {
	if len(s.apps) == 0 {
		return live
	}
	var out []string
	for _, app := range live {
		for _, want := range s.apps {
			if app == want {
				out = append(out, app)
				break
			}
		}
	}
	return out
}

// present re-lists what is still visible, falling back to the cached set
// when the orchestrator cannot answer.
func (s *DestroyApplicationsStep) present(ctx context.Context) []string {
	live, err := s.client.GetApplicationNames(ctx, s.modelName)
	if err != nil {
		s.log.WithFields(map[string]any{"error": err.Error()}).Warn("failed to re-list applications, forcing the cached set")
		return s.remaining
	}
	return s.targeted(live)
}
