// Package node holds the steps driving a single node through its
// lifecycle on the substrate cluster.
package node

import (
	"context"
	"fmt"

	"github.com/droverproject/drover/internal/kube"
	"github.com/droverproject/drover/internal/logger"
	"github.com/droverproject/drover/internal/model"
	"github.com/droverproject/drover/internal/step"
	droverrors "github.com/droverproject/drover/pkg/errors"
)

// CordonStep marks a node unschedulable so no new workload lands on it.
type CordonStep struct {
	step.Base
	log    *logger.Logger
	client *kube.Client
	node   string
}

// NewCordonStep builds the cordon step for one node.
func NewCordonStep(log *logger.Logger, client *kube.Client, node string) *CordonStep {
	if log == nil {
		log = logger.Nop()
	}
	return &CordonStep{
		Base:   step.NewBase("cordon-"+node, fmt.Sprintf("Cordon node %s", node)),
		log:    log,
		client: client,
		node:   node,
	}
}

// Skip reports SKIPPED when the node is already unschedulable. A missing
// node is a failure, not a skip.
func (s *CordonStep) Skip(ctx context.Context) model.Result {
	node, err := s.client.GetNode(ctx, s.node)
	if err != nil {
		if droverrors.IsNotFound(err) {
			return model.Failed("node %q not found", s.node)
		}
		return model.Failed("failed to inspect node %q: %v", s.node, err)
	}
	if node.Spec.Unschedulable {
		return model.Skipped(fmt.Sprintf("node %s already cordoned", s.node))
	}
	return model.Completed()
}

// Run cordons the node.
func (s *CordonStep) Run(ctx context.Context, status step.Status) model.Result {
	status.Update(fmt.Sprintf("cordoning %s", s.node))
	if err := s.client.Cordon(ctx, s.node); err != nil {
		return model.Failed("failed to cordon node %q: %v", s.node, err)
	}
	s.log.WithFields(map[string]any{"node": s.node}).Info("node cordoned")
	return model.Completed()
}

// UncordonStep restores a node to schedulable.
type UncordonStep struct {
	step.Base
	log    *logger.Logger
	client *kube.Client
	node   string
}

// NewUncordonStep builds the uncordon step for one node.
func NewUncordonStep(log *logger.Logger, client *kube.Client, node string) *UncordonStep {
	if log == nil {
		log = logger.Nop()
	}
	return &UncordonStep{
		Base:   step.NewBase("uncordon-"+node, fmt.Sprintf("Uncordon node %s", node)),
		log:    log,
		client: client,
		node:   node,
	}
}

// Skip reports SKIPPED when the node is already schedulable.
func (s *UncordonStep) Skip(ctx context.Context) model.Result {
	node, err := s.client.GetNode(ctx, s.node)
	if err != nil {
		if droverrors.IsNotFound(err) {
			return model.Failed("node %q not found", s.node)
		}
		return model.Failed("failed to inspect node %q: %v", s.node, err)
	}
	if !node.Spec.Unschedulable {
		return model.Skipped(fmt.Sprintf("node %s not cordoned", s.node))
	}
	return model.Completed()
}

// Run uncordons the node.
func (s *UncordonStep) Run(ctx context.Context, status step.Status) model.Result {
	status.Update(fmt.Sprintf("uncordoning %s", s.node))
	if err := s.client.Uncordon(ctx, s.node); err != nil {
		return model.Failed("failed to uncordon node %q: %v", s.node, err)
	}
	s.log.WithFields(map[string]any{"node": s.node}).Info("node uncordoned")
	return model.Completed()
}
