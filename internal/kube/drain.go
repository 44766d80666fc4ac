package kube

import (
	"context"
	"fmt"
	"sort"

	corev1 "k8s.io/api/core/v1"

	"github.com/droverproject/drover/internal/logger"
)

// Claim identifies a persistent volume claim bound on a drained node.
type Claim struct {
	Namespace string
	Name      string
}

func (c Claim) String() string {
	return c.Namespace + "/" + c.Name
}

// DrainReport summarises one drain pass over a node.
type DrainReport struct {
	Evicted        []string
	FailedPods     []string
	DeletedClaims  []string
	FailedClaims   []string
	SkippedDaemons int
}

// Clean reports whether every eviction and claim removal went through.
func (r DrainReport) Clean() bool {
	return len(r.FailedPods) == 0 && len(r.FailedClaims) == 0
}

// Drainer empties a node of its evictable workload. Pods managed by a
// DaemonSet are left in place since their controller would immediately
// reschedule them. Volume claims bound by evicted pods are removed so
// replacement pods rebind storage elsewhere.
type Drainer struct {
	log    *logger.Logger
	client *Client
}

// NewDrainer returns a Drainer over the given client.
func NewDrainer(log *logger.Logger, client *Client) *Drainer {
	if log == nil {
		log = logger.Nop()
	}
	return &Drainer{log: log, client: client}
}

// Drain evicts every non-daemon pod from the node and deletes the volume
// claims those pods had mounted. Individual failures are collected in the
// report rather than aborting the pass, so a single stuck pod does not
// shadow the rest of the drain.
func (d *Drainer) Drain(ctx context.Context, node string) (DrainReport, error) {
	var report DrainReport

	pods, err := d.client.PodsOnNode(ctx, node)
	if err != nil {
		return report, fmt.Errorf("failed to list pods on node %q: %w", node, err)
	}

	evictable := evictablePods(pods)
	report.SkippedDaemons = len(pods) - len(evictable)
	claims := boundClaims(evictable)

	d.log.WithFields(map[string]any{
		"node":    node,
		"pods":    len(evictable),
		"daemons": report.SkippedDaemons,
		"claims":  len(claims),
	}).Info("draining node")

	for _, pod := range evictable {
		key := pod.Namespace + "/" + pod.Name
		if err := d.client.EvictPod(ctx, pod); err != nil {
			d.log.WithFields(map[string]any{"pod": key, "error": err.Error()}).Warn("pod eviction failed")
			report.FailedPods = append(report.FailedPods, key)
			continue
		}
		report.Evicted = append(report.Evicted, key)
	}

	for _, claim := range claims {
		if err := d.client.DeletePVC(ctx, claim.Namespace, claim.Name); err != nil {
			d.log.WithFields(map[string]any{"claim": claim.String(), "error": err.Error()}).Warn("claim removal failed")
			report.FailedClaims = append(report.FailedClaims, claim.String())
			continue
		}
		report.DeletedClaims = append(report.DeletedClaims, claim.String())
	}

	return report, nil
}

// evictablePods drops pods owned by a DaemonSet.
func evictablePods(pods []corev1.Pod) []corev1.Pod {
	out := make([]corev1.Pod, 0, len(pods))
	for _, pod := range pods {
		if ownedByDaemonSet(pod) {
			continue
		}
		out = append(out, pod)
	}
	return out
}

func ownedByDaemonSet(pod corev1.Pod) bool {
	for _, ref := range pod.OwnerReferences {
		if ref.Kind == "DaemonSet" {
			return true
		}
	}
	return false
}

// boundClaims collects the volume claims mounted by the given pods,
// deduplicated and in stable order.
func boundClaims(pods []corev1.Pod) []Claim {
	seen := make(map[Claim]struct{})
	for _, pod := range pods {
		for _, volume := range pod.Spec.Volumes {
			if volume.PersistentVolumeClaim == nil {
				continue
			}
			seen[Claim{Namespace: pod.Namespace, Name: volume.PersistentVolumeClaim.ClaimName}] = struct{}{}
		}
	}

	claims := make([]Claim, 0, len(seen))
	for claim := range seen {
		claims = append(claims, claim)
	}
	sort.Slice(claims, func(i, j int) bool {
		if claims[i].Namespace != claims[j].Namespace {
			return claims[i].Namespace < claims[j].Namespace
		}
		return claims[i].Name < claims[j].Name
	})
	return claims
}
