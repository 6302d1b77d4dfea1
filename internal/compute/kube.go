package compute

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/remotecommand"

	"github.com/boxfleet/boxfleet/internal/model"
)

const (
	LabelApp      = "boxfleet"
	LabelUser     = "boxfleet-user"
	LabelName     = "boxfleet-name"
	LabelInstance = "boxfleet-instance"

	AnnotationTTL          = "boxfleet/ttl"
	AnnotationCreatedAt    = "boxfleet/created-at"
	AnnotationImageAlias   = "boxfleet/image-alias"
	AnnotationImageID      = "boxfleet/image-id"
	AnnotationInstanceType = "boxfleet/instance-type"
	AnnotationConnect      = "boxfleet/connect"
	tagAnnotationPrefix    = "boxfleet.tag/"
)

// KubeProvider runs boxes as pods in a dedicated namespace. Pod names double
// as instance IDs; box metadata lives in labels and annotations so the
// cluster itself is the source of truth for the fleet.
type KubeProvider struct {
	clientset kubernetes.Interface
	config    *rest.Config
	namespace string
}

// NewKubeProvider builds a provider from a kubeconfig path, falling back to
// in-cluster config when the path is empty.
func NewKubeProvider(kubeconfigPath, namespace string) (*KubeProvider, error) {
	var config *rest.Config
	var err error

	if kubeconfigPath != "" {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	} else {
		config, err = rest.InClusterConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kubernetes config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return &KubeProvider{clientset: clientset, config: config, namespace: namespace}, nil
}

// NewKubeProviderWithClient wires an existing clientset, used by tests with
// the fake clientset. Exec-based operations need a rest config and are
// unavailable through this constructor.
func NewKubeProviderWithClient(clientset kubernetes.Interface, namespace string) *KubeProvider {
	return &KubeProvider{clientset: clientset, namespace: namespace}
}

// EnsureNamespace creates the box namespace if it does not exist yet.
func (p *KubeProvider) EnsureNamespace(ctx context.Context) error {
	_, err := p.clientset.CoreV1().Namespaces().Get(ctx, p.namespace, metav1.GetOptions{})
	if err == nil {
		return nil
	}

	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name: p.namespace,
		},
	}
	_, err = p.clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if errors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

func generateInstanceID() string {
	return "box-" + uuid.New().String()[:8]
}

// CreateBox launches a pod for the box and returns its box view.
func (p *KubeProvider) CreateBox(ctx context.Context, opts CreateOptions) (*model.Box, error) {
	instanceID := generateInstanceID()
	size := profileFor(opts.InstanceType)
	createdAt := strconv.FormatInt(time.Now().Unix(), 10)

	annotations := map[string]string{
		AnnotationTTL:          strconv.FormatInt(opts.TTL, 10),
		AnnotationCreatedAt:    createdAt,
		AnnotationImageAlias:   opts.ImageAlias,
		AnnotationImageID:      opts.ImageID,
		AnnotationInstanceType: opts.InstanceType,
	}
	if opts.Connect {
		annotations[AnnotationConnect] = "true"
	}
	for k, v := range opts.Tags {
		annotations[tagAnnotationPrefix+k] = v
	}

	labels := map[string]string{
		"app":         LabelApp,
		LabelUser:     opts.User,
		LabelName:     opts.Name,
		LabelInstance: instanceID,
	}

	var envVars []corev1.EnvVar
	if opts.PublicKey != "" {
		envVars = append(envVars, corev1.EnvVar{Name: "AUTHORIZED_KEYS", Value: opts.PublicKey})
	}

	var runAsUser int64 = 1000

	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:        instanceID,
			Namespace:   p.namespace,
			Labels:      labels,
			Annotations: annotations,
		},
		Spec: corev1.PodSpec{
			// Always, so reboot (kill 1) restarts the workload in place.
			RestartPolicy: corev1.RestartPolicyAlways,
			SecurityContext: &corev1.PodSecurityContext{
				SeccompProfile: &corev1.SeccompProfile{
					Type: corev1.SeccompProfileTypeRuntimeDefault,
				},
			},
			Containers: []corev1.Container{
				{
					Name:            "main",
					Image:           opts.ImageID,
					ImagePullPolicy: corev1.PullIfNotPresent,
					Command:         []string{"sleep", "infinity"},
					Env:             envVars,
					Resources: corev1.ResourceRequirements{
						Limits: corev1.ResourceList{
							corev1.ResourceCPU:    resource.MustParse(size.CPU),
							corev1.ResourceMemory: resource.MustParse(size.Memory),
						},
						Requests: corev1.ResourceList{
							corev1.ResourceCPU:    resource.MustParse("100m"),
							corev1.ResourceMemory: resource.MustParse("128Mi"),
						},
					},
					SecurityContext: &corev1.SecurityContext{
						AllowPrivilegeEscalation: boolPtr(false),
						RunAsNonRoot:             boolPtr(true),
						RunAsUser:                &runAsUser,
					},
				},
			},
		},
	}

	created, err := p.clientset.CoreV1().Pods(p.namespace).Create(ctx, pod, metav1.CreateOptions{})
	if err != nil {
		return nil, model.Errorf(model.ErrBackendUnavailable, "failed to create pod: %v", err)
	}

	if opts.Connect {
		if err := p.ensureConnectPolicy(ctx, instanceID); err != nil {
			// Don't leave a half-provisioned box behind.
			_ = p.clientset.CoreV1().Pods(p.namespace).Delete(ctx, instanceID, metav1.DeleteOptions{})
			return nil, model.Errorf(model.ErrBackendUnavailable, "failed to create connect policy: %v", err)
		}
	}

	box := p.podToBox(created)
	return &box, nil
}

// ListBoxes returns one box per live pod carrying the fleet label.
func (p *KubeProvider) ListBoxes(ctx context.Context) ([]model.Box, error) {
	pods, err := p.clientset.CoreV1().Pods(p.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: fmt.Sprintf("app=%s", LabelApp),
	})
	if err != nil {
		return nil, model.Errorf(model.ErrBackendUnavailable, "failed to list pods: %v", err)
	}

	boxes := make([]model.Box, 0, len(pods.Items))
	for i := range pods.Items {
		pod := &pods.Items[i]
		if pod.DeletionTimestamp != nil {
			continue
		}
		boxes = append(boxes, p.podToBox(pod))
	}
	return boxes, nil
}

// TerminateBox deletes the pod and its connect policy, if any. A pod that is
// already gone is a success.
func (p *KubeProvider) TerminateBox(ctx context.Context, instanceID string) error {
	// Best effort; most boxes have no connect policy.
	_ = p.clientset.NetworkingV1().NetworkPolicies(p.namespace).Delete(ctx, instanceID+"-connect", metav1.DeleteOptions{})

	err := p.clientset.CoreV1().Pods(p.namespace).Delete(ctx, instanceID, metav1.DeleteOptions{})
	if errors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return model.Errorf(model.ErrBackendUnavailable, "failed to delete pod: %v", err)
	}
	return nil
}

// RebootBox restarts the box's workload by signalling its init process.
func (p *KubeProvider) RebootBox(ctx context.Context, instanceID string) error {
	if p.config == nil {
		return model.Errorf(model.ErrBackendUnavailable, "reboot requires cluster credentials")
	}

	req := p.clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(instanceID).
		Namespace(p.namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: "main",
			Command:   []string{"kill", "1"},
			Stdin:     false,
			Stdout:    true,
			Stderr:    true,
			TTY:       false,
		}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(p.config, "POST", req.URL())
	if err != nil {
		return model.Errorf(model.ErrBackendUnavailable, "failed to create executor: %v", err)
	}

	var stdout, stderr bytes.Buffer
	err = exec.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if err != nil {
		return model.Errorf(model.ErrBackendUnavailable, "failed to reboot: %v, stderr: %s", err, stderr.String())
	}
	return nil
}

func (p *KubeProvider) podToBox(pod *corev1.Pod) model.Box {
	ttl, _ := strconv.ParseInt(pod.Annotations[AnnotationTTL], 10, 64)

	var tags map[string]string
	for k, v := range pod.Annotations {
		if strings.HasPrefix(k, tagAnnotationPrefix) {
			if tags == nil {
				tags = map[string]string{}
			}
			tags[strings.TrimPrefix(k, tagAnnotationPrefix)] = v
		}
	}

	box := model.Box{
		InstanceID:   pod.Name,
		User:         pod.Labels[LabelUser],
		Name:         pod.Labels[LabelName],
		ImageAlias:   pod.Annotations[AnnotationImageAlias],
		ImageID:      pod.Annotations[AnnotationImageID],
		InstanceType: pod.Annotations[AnnotationInstanceType],
		CreatedAt:    pod.Annotations[AnnotationCreatedAt],
		TTL:          ttl,
		Tags:         tags,
	}
	if ip := pod.Status.PodIP; ip != "" {
		box.PublicIP = ip
		box.PublicDNSName = fmt.Sprintf("%s.%s.pod.cluster.local", strings.ReplaceAll(ip, ".", "-"), p.namespace)
	}
	return box
}

func boolPtr(b bool) *bool {
	return &b
}
