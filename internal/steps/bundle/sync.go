// Package bundle materializes IaC plan bundles into the deployment
// working directory before the engine runs them.
package bundle

import (
	"context"
	"fmt"

	"github.com/droverproject/drover/internal/iac"
	"github.com/droverproject/drover/internal/logger"
	"github.com/droverproject/drover/internal/model"
	"github.com/droverproject/drover/internal/step"
)

// SyncBundlesStep fetches every configured plan bundle.
type SyncBundlesStep struct {
	step.Base
	log     *logger.Logger
	sync    *iac.BundleSync
	bundles []iac.Bundle
}

// NewSyncBundlesStep builds the sync step.
func NewSyncBundlesStep(log *logger.Logger, sync *iac.BundleSync, bundles []iac.Bundle) *SyncBundlesStep {
	if log == nil {
		log = logger.Nop()
	}
	return &SyncBundlesStep{
		Base:    step.NewBase("sync-bundles", "Fetch plan bundles"),
		log:     log,
		sync:    sync,
		bundles: bundles,
	}
}

// Skip reports SKIPPED when no bundles are configured.
func (s *SyncBundlesStep) Skip(context.Context) model.Result {
	if len(s.bundles) == 0 {
		return model.Skipped("no plan bundles configured")
	}
	return model.Completed()
}

// Run fetches each bundle. Sync itself is incremental: existing clones
// are pulled, not re-cloned.
func (s *SyncBundlesStep) Run(ctx context.Context, status step.Status) model.Result {
	status.Update(fmt.Sprintf("fetching %d bundles", len(s.bundles)))
	if err := s.sync.Sync(ctx, s.bundles); err != nil {
		return model.FailedErr(err)
	}
	return model.CompletedPayload(map[string]any{"bundles": len(s.bundles)})
}
