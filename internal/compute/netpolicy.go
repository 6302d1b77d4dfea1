package compute

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// Ports opened for boxes created with the connect flag.
const (
	ConnectPort    = 3939
	ConnectAltPort = 13939
)

// ensureConnectPolicy opens the connect ports for one box. The policy is
// named after the instance so terminating the pod leaves at most one
// orphaned policy, cleaned up on the next terminate of the same name.
func (p *KubeProvider) ensureConnectPolicy(ctx context.Context, instanceID string) error {
	tcp := corev1.ProtocolTCP
	connectPort := intstr.FromInt(ConnectPort)
	altPort := intstr.FromInt(ConnectAltPort)

	policy := &networkingv1.NetworkPolicy{
		ObjectMeta: metav1.ObjectMeta{
			Name:      instanceID + "-connect",
			Namespace: p.namespace,
			Labels: map[string]string{
				"app": LabelApp,
			},
		},
		Spec: networkingv1.NetworkPolicySpec{
			PodSelector: metav1.LabelSelector{
				MatchLabels: map[string]string{
					LabelInstance: instanceID,
				},
			},
			PolicyTypes: []networkingv1.PolicyType{networkingv1.PolicyTypeIngress},
			Ingress: []networkingv1.NetworkPolicyIngressRule{
				{
					Ports: []networkingv1.NetworkPolicyPort{
						{Protocol: &tcp, Port: &connectPort},
						{Protocol: &tcp, Port: &altPort},
					},
				},
			},
		},
	}

	_, err := p.clientset.NetworkingV1().NetworkPolicies(p.namespace).Create(ctx, policy, metav1.CreateOptions{})
	if errors.IsAlreadyExists(err) {
		return nil
	}
	return err
}
