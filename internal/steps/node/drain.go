package node

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/droverproject/drover/internal/kube"
	"github.com/droverproject/drover/internal/logger"
	"github.com/droverproject/drover/internal/model"
	"github.com/droverproject/drover/internal/step"
	droverrors "github.com/droverproject/drover/pkg/errors"
)

// Drain retry cadence. Disruption budgets need time to let evictions
// through, so a refused drain is retried on a fixed interval until the
// budget runs out.
const (
	DefaultDrainInterval = 20 * time.Second
	DefaultDrainBudget   = 10 * time.Minute
)

// Drainer is the slice of the substrate client the drain step needs.
type Drainer interface {
	Drain(ctx context.Context, node string) (kube.DrainReport, error)
}

// DrainStep empties a node, retrying while evictions are being refused.
type DrainStep struct {
	step.Base
	log     *logger.Logger
	client  *kube.Client
	drainer Drainer
	node    string

	retryInterval time.Duration
	retryBudget   time.Duration
}

// NewDrainStep builds the drain step for one node.
func NewDrainStep(log *logger.Logger, client *kube.Client, drainer Drainer, node string) *DrainStep {
	if log == nil {
		log = logger.Nop()
	}
	return &DrainStep{
		Base:          step.NewBase("drain-"+node, fmt.Sprintf("Drain node %s", node)),
		log:           log,
		client:        client,
		drainer:       drainer,
		node:          node,
		retryInterval: DefaultDrainInterval,
		retryBudget:   DefaultDrainBudget,
	}
}

// Skip verifies the node exists. Draining always runs; the drain itself
// is idempotent on an already-empty node.
func (s *DrainStep) Skip(ctx context.Context) model.Result {
	if _, err := s.client.GetNode(ctx, s.node); err != nil {
		if droverrors.IsNotFound(err) {
			return model.Failed("node %q not found", s.node)
		}
		return model.Failed("failed to inspect node %q: %v", s.node, err)
	}
	return model.Completed()
}

// Run drains until clean or the retry budget elapses.
func (s *DrainStep) Run(ctx context.Context, status step.Status) model.Result {
	status.Update(fmt.Sprintf("draining %s", s.node))

	var last kube.DrainReport
	attempt := 0
	drain := func() error {
		attempt++
		report, err := s.drainer.Drain(ctx, s.node)
		if err != nil {
			s.log.WithFields(map[string]any{"node": s.node, "attempt": attempt, "error": err.Error()}).Warn("drain pass failed")
			return err
		}
		last = report
		if !report.Clean() {
			s.log.WithFields(map[string]any{
				"node":    s.node,
				"attempt": attempt,
				"pods":    len(report.FailedPods),
				"claims":  len(report.FailedClaims),
			}).Warn("drain pass incomplete")
			status.Update(fmt.Sprintf("waiting for %d pods to allow eviction", len(report.FailedPods)))
			return fmt.Errorf("%d pods and %d claims still refusing removal", len(report.FailedPods), len(report.FailedClaims))
		}
		return nil
	}

	retries := uint64(s.retryBudget / s.retryInterval)
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryInterval), retries),
		ctx,
	)
	if err := backoff.Retry(drain, policy); err != nil {
		return model.Failed("failed to drain node %q: %v", s.node, err)
	}

	s.log.WithFields(map[string]any{
		"node":    s.node,
		"evicted": len(last.Evicted),
		"claims":  len(last.DeletedClaims),
	}).Info("node drained")
	return model.CompletedPayload(map[string]any{
		"evicted": len(last.Evicted),
		"claims":  len(last.DeletedClaims),
	})
}
