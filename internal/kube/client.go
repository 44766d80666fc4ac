package kube

import (
	"context"
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	policyv1 "k8s.io/api/policy/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/droverproject/drover/internal/logger"
	droverrors "github.com/droverproject/drover/pkg/errors"
)

// Load-balancer annotations and namespace used by the metallb provider.
const (
	LBIPAnnotation            = "metallb.universe.tf/loadBalancerIPs"
	LBAddressPoolAnnotation   = "metallb.universe.tf/address-pool"
	LBAllocatedPoolAnnotation = "metallb.universe.tf/ip-allocated-from-pool"
	LBNamespace               = "metallb-system"
)

// Client wraps the container orchestrator's typed and dynamic interfaces
// behind the handful of calls the orchestration core needs. Absent
// targets surface as NotFoundError so call sites can tell absence from
// transport failure.
type Client struct {
	log       *logger.Logger
	clientset kubernetes.Interface
	dynamic   dynamic.Interface
}

// New wraps existing interfaces. Tests hand in fakes.
func New(log *logger.Logger, clientset kubernetes.Interface, dyn dynamic.Interface) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{log: log, clientset: clientset, dynamic: dyn}
}

// NewFromKubeconfig builds a Client from a kubeconfig file.
func NewFromKubeconfig(log *logger.Logger, kubeconfig string) (*Client, error) {
	restCfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, err
	}
	dyn, err := dynamic.NewForConfig(restCfg)
	if err != nil {
		return nil, err
	}
	return New(log, clientset, dyn), nil
}

// GetNode fetches a node by name.
func (c *Client) GetNode(ctx context.Context, name string) (*corev1.Node, error) {
	node, err := c.clientset.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, droverrors.NewNotFoundError("node", name, err)
		}
		return nil, err
	}
	return node, nil
}

// Cordon marks a node unschedulable. A missing node is a distinguished
// failure, never retried.
func (c *Client) Cordon(ctx context.Context, name string) error {
	return c.setUnschedulable(ctx, name, true)
}

// Uncordon clears the unschedulable flag. Idempotent.
func (c *Client) Uncordon(ctx context.Context, name string) error {
	return c.setUnschedulable(ctx, name, false)
}

func (c *Client) setUnschedulable(ctx context.Context, name string, value bool) error {
	patch, err := json.Marshal(map[string]any{"spec": map[string]any{"unschedulable": value}})
	if err != nil {
		return err
	}
	_, err = c.clientset.CoreV1().Nodes().Patch(ctx, name, types.StrategicMergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return droverrors.NewNotFoundError("node", name, err)
		}
		return err
	}
	return nil
}

// PodsOnNode lists every pod currently scheduled on the node, across all
// namespaces.
func (c *Client) PodsOnNode(ctx context.Context, node string) ([]corev1.Pod, error) {
	list, err := c.clientset.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{
		FieldSelector: "spec.nodeName=" + node,
	})
	if err != nil {
		return nil, err
	}

	// Filter again client side; list backends are not required to honour
	// the field selector.
	pods := make([]corev1.Pod, 0, len(list.Items))
	for _, pod := range list.Items {
		if pod.Spec.NodeName == node {
			pods = append(pods, pod)
		}
	}
	return pods, nil
}

// EvictPod asks the orchestrator to evict one pod, honouring disruption
// budgets.
func (c *Client) EvictPod(ctx context.Context, pod corev1.Pod) error {
	eviction := &policyv1.Eviction{
		ObjectMeta: metav1.ObjectMeta{Name: pod.Name, Namespace: pod.Namespace},
	}
	if err := c.clientset.PolicyV1().Evictions(pod.Namespace).Evict(ctx, eviction); err != nil {
		if apierrors.IsNotFound(err) {
			return droverrors.NewNotFoundError("pod", pod.Namespace+"/"+pod.Name, err)
		}
		return err
	}
	return nil
}

// DeletePVC removes a persistent volume claim immediately, cascading to
// dependents before the claim itself disappears.
func (c *Client) DeletePVC(ctx context.Context, namespace, name string) error {
	grace := int64(0)
	propagation := metav1.DeletePropagationForeground
	err := c.clientset.CoreV1().PersistentVolumeClaims(namespace).Delete(ctx, name, metav1.DeleteOptions{
		GracePeriodSeconds: &grace,
		PropagationPolicy:  &propagation,
	})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return droverrors.NewNotFoundError("persistentvolumeclaim", namespace+"/"+name, err)
		}
		return err
	}
	return nil
}

// GetService fetches a service, falling back to the "-lb" suffixed name
// some charms expose their load balancer under.
func (c *Client) GetService(ctx context.Context, namespace, name string) (*corev1.Service, error) {
	svc, err := c.clientset.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return svc, nil
	}
	if !apierrors.IsNotFound(err) {
		return nil, err
	}

	fallback := name + "-lb"
	svc, fbErr := c.clientset.CoreV1().Services(namespace).Get(ctx, fallback, metav1.GetOptions{})
	if fbErr != nil {
		if apierrors.IsNotFound(fbErr) {
			return nil, droverrors.NewNotFoundError("service", namespace+"/"+name, err)
		}
		return nil, fbErr
	}
	return svc, nil
}

// PatchServiceAnnotations merges annotations into a service.
func (c *Client) PatchServiceAnnotations(ctx context.Context, namespace, name string, annotations map[string]string) error {
	patch, err := json.Marshal(map[string]any{"metadata": map[string]any{"annotations": annotations}})
	if err != nil {
		return err
	}
	_, err = c.clientset.CoreV1().Services(namespace).Patch(ctx, name, types.MergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return droverrors.NewNotFoundError("service", namespace+"/"+name, err)
		}
		return err
	}
	return nil
}
