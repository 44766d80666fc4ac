package node

import (
	"context"
	"fmt"

	"github.com/droverproject/drover/internal/kube"
	"github.com/droverproject/drover/internal/logger"
	"github.com/droverproject/drover/internal/model"
	"github.com/droverproject/drover/internal/step"
)

// Pool is one load-balancer address pool to materialize.
type Pool struct {
	Name      string
	Addresses []string
}

// EnsureIPPoolsStep creates the configured address pools and their L2
// advertisements. Existing resources are left untouched.
type EnsureIPPoolsStep struct {
	step.Base
	log    *logger.Logger
	client *kube.Client
	pools  []Pool
}

// NewEnsureIPPoolsStep builds the pool step.
func NewEnsureIPPoolsStep(log *logger.Logger, client *kube.Client, pools []Pool) *EnsureIPPoolsStep {
	if log == nil {
		log = logger.Nop()
	}
	return &EnsureIPPoolsStep{
		Base:   step.NewBase("ensure-ip-pools", "Ensure load-balancer address pools"),
		log:    log,
		client: client,
		pools:  pools,
	}
}

// Skip reports SKIPPED when no pools are configured.
func (s *EnsureIPPoolsStep) Skip(context.Context) model.Result {
	if len(s.pools) == 0 {
		return model.Skipped("no address pools configured")
	}
	return model.Completed()
}

// Run creates each pool and its advertisement.
func (s *EnsureIPPoolsStep) Run(ctx context.Context, status step.Status) model.Result {
	for _, pool := range s.pools {
		status.Update(fmt.Sprintf("ensuring pool %s", pool.Name))
		if err := s.client.EnsureIPPool(ctx, pool.Name, pool.Addresses); err != nil {
			return model.Failed("failed to ensure pool %q: %v", pool.Name, err)
		}
		if err := s.client.EnsureL2Advertisement(ctx, pool.Name+"-l2", []string{pool.Name}); err != nil {
			return model.Failed("failed to ensure advertisement for pool %q: %v", pool.Name, err)
		}
	}
	return model.Completed()
}

// PatchLoadBalancerServicesStep pins allocated load-balancer addresses
// into service annotations so allocations survive controller restarts.
type PatchLoadBalancerServicesStep struct {
	step.Base
	log       *logger.Logger
	client    *kube.Client
	namespace string
	services  []string
}

// NewPatchLoadBalancerServicesStep builds the pinning step.
func NewPatchLoadBalancerServicesStep(log *logger.Logger, client *kube.Client, namespace string, services []string) *PatchLoadBalancerServicesStep {
	if log == nil {
		log = logger.Nop()
	}
	return &PatchLoadBalancerServicesStep{
		Base:      step.NewBase("patch-lb-services", "Pin load-balancer service addresses"),
		log:       log,
		client:    client,
		namespace: namespace,
		services:  services,
	}
}

// Skip reports SKIPPED when no services are configured.
func (s *PatchLoadBalancerServicesStep) Skip(context.Context) model.Result {
	if len(s.services) == 0 {
		return model.Skipped("no load-balancer services configured")
	}
	return model.Completed()
}

// Run pins each service's allocation. Pinning is idempotent per service.
func (s *PatchLoadBalancerServicesStep) Run(ctx context.Context, status step.Status) model.Result {
	pinned := make(map[string]string, len(s.services))
	for _, svc := range s.services {
		status.Update(fmt.Sprintf("pinning %s", svc))
		ip, err := s.client.PinLoadBalancerIP(ctx, s.namespace, svc)
		if err != nil {
			return model.Failed("failed to pin service %q: %v", svc, err)
		}
		if ip != "" {
			pinned[svc] = ip
		}
	}
	return model.CompletedPayload(pinned)
}
