package kube

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var (
	ipPoolGVR = schema.GroupVersionResource{Group: "metallb.io", Version: "v1beta1", Resource: "ipaddresspools"}
	l2AdvGVR  = schema.GroupVersionResource{Group: "metallb.io", Version: "v1beta1", Resource: "l2advertisements"}
)

// EnsureIPPool creates an address pool in the load-balancer namespace.
// An existing pool with the same name is left untouched.
func (c *Client) EnsureIPPool(ctx context.Context, name string, addresses []string) error {
	pool := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "metallb.io/v1beta1",
		"kind":       "IPAddressPool",
		"metadata": map[string]any{
			"name":      name,
			"namespace": LBNamespace,
		},
		"spec": map[string]any{
			"addresses": toAnySlice(addresses),
		},
	}}

	_, err := c.dynamic.Resource(ipPoolGVR).Namespace(LBNamespace).Create(ctx, pool, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		c.log.WithFields(map[string]any{"pool": name}).Debug("address pool already present")
		return nil
	}
	return err
}

// EnsureL2Advertisement creates an L2 advertisement announcing the given
// pools. An existing advertisement with the same name is left untouched.
func (c *Client) EnsureL2Advertisement(ctx context.Context, name string, pools []string) error {
	adv := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "metallb.io/v1beta1",
		"kind":       "L2Advertisement",
		"metadata": map[string]any{
			"name":      name,
			"namespace": LBNamespace,
		},
		"spec": map[string]any{
			"ipAddressPools": toAnySlice(pools),
		},
	}}

	_, err := c.dynamic.Resource(l2AdvGVR).Namespace(LBNamespace).Create(ctx, adv, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		c.log.WithFields(map[string]any{"advertisement": name}).Debug("advertisement already present")
		return nil
	}
	return err
}

// LoadBalancerIP returns the first ingress address assigned to a
// load-balancer service, or "" when none has been allocated yet.
func LoadBalancerIP(svc *corev1.Service) string {
	if svc == nil {
		return ""
	}
	for _, ingress := range svc.Status.LoadBalancer.Ingress {
		if ingress.IP != "" {
			return ingress.IP
		}
	}
	return ""
}

// PinLoadBalancerIP records the service's allocated address in its
// annotations so the allocation survives a controller restart. Services
// without an allocated address or already pinned are left alone.
func (c *Client) PinLoadBalancerIP(ctx context.Context, namespace, name string) (string, error) {
	svc, err := c.GetService(ctx, namespace, name)
	if err != nil {
		return "", err
	}

	ip := LoadBalancerIP(svc)
	if ip == "" {
		c.log.WithFields(map[string]any{"service": svc.Name}).Debug("service has no allocated address")
		return "", nil
	}
	if svc.Annotations[LBIPAnnotation] == ip {
		return ip, nil
	}

	annotations := map[string]string{LBIPAnnotation: ip}
	if pool, ok := svc.Annotations[LBAllocatedPoolAnnotation]; ok {
		annotations[LBAddressPoolAnnotation] = pool
	}
	if err := c.PatchServiceAnnotations(ctx, svc.Namespace, svc.Name, annotations); err != nil {
		return "", err
	}
	c.log.WithFields(map[string]any{"service": svc.Name, "ip": ip}).Debug("pinned load-balancer address")
	return ip, nil
}

func toAnySlice(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
