package k8slauncher

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/curaious/sandpilot/internal/sandbox"
	"github.com/google/uuid"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Config defines how sandbox pods are created.
type Config struct {
	// Namespace used when the launch config does not name a cluster.
	Namespace string

	// Resource hints (K8s quantities, e.g. "500m", "1Gi").
	CPU    string
	Memory string

	// ServiceAccount the sandbox pod runs as. The account needs whatever
	// access the workload uses to report completion back.
	ServiceAccount string

	// TTL bounds how long a sandbox pod may run before Kubernetes kills it.
	// Zero leaves the pod unbounded.
	TTL time.Duration
}

// kubeLauncher is a Kubernetes-backed implementation of sandbox.Launcher.
// Each sandbox is one pod with RestartPolicyNever; the pod's termination
// message carries the result payload.
type kubeLauncher struct {
	client kubernetes.Interface
	cfg    Config

	mu    sync.RWMutex
	byID  map[string]podRef
}

type podRef struct {
	namespace string
	podName   string
}

// NewLauncher creates a launcher that uses the in-cluster configuration by
// default, falling back to the local kubeconfig.
func NewLauncher(cfg Config) (sandbox.Launcher, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = "sandpilot-sandbox"
	}

	restCfg, err := rest.InClusterConfig()
	if err != nil {
		kubeconfig := os.Getenv("KUBECONFIG")
		restCfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create kubernetes config: %w", err)
		}
	}

	client, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return &kubeLauncher{
		client: client,
		cfg:    cfg,
		byID:   make(map[string]podRef),
	}, nil
}

func (l *kubeLauncher) Launch(ctx context.Context, cfg sandbox.LaunchConfig) (string, error) {
	if cfg.TaskTemplate == "" {
		return "", fmt.Errorf("task template is required")
	}

	namespace := cfg.Cluster
	if namespace == "" {
		namespace = l.cfg.Namespace
	}

	sandboxID := fmt.Sprintf("sandbox-%s", uuid.New())

	podSpec := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      sandboxID,
			Namespace: namespace,
			Labels: map[string]string{
				"app":     "sandpilot-sandbox",
				"managed": "sandpilot",
				"public":  strconv.FormatBool(cfg.AssignPublicIP),
			},
			Annotations: map[string]string{
				"sandpilot.io/subnets": strings.Join(cfg.Subnets, ","),
			},
		},
		Spec: corev1.PodSpec{
			RestartPolicy:         corev1.RestartPolicyNever,
			ServiceAccountName:    l.cfg.ServiceAccount,
			ActiveDeadlineSeconds: l.activeDeadlineSeconds(),
			Containers: []corev1.Container{
				{
					Name:  "sandbox",
					Image: cfg.TaskTemplate,
					Env: []corev1.EnvVar{
						{Name: "SANDBOX_ID", Value: sandboxID},
					},
					Resources: l.resourceRequirements(),
				},
			},
		},
	}

	if _, err := l.client.CoreV1().Pods(namespace).Create(ctx, podSpec, metav1.CreateOptions{}); err != nil {
		return "", fmt.Errorf("create sandbox pod: %w", err)
	}

	l.setRef(sandboxID, podRef{namespace: namespace, podName: sandboxID})

	return sandboxID, nil
}

func (l *kubeLauncher) Check(ctx context.Context, sandboxID string) (sandbox.Status, error) {
	pod, err := l.getPod(ctx, sandboxID)
	if err != nil {
		return "", err
	}

	switch pod.Status.Phase {
	case corev1.PodPending:
		return sandbox.StatusPending, nil
	case corev1.PodRunning:
		return sandbox.StatusRunning, nil
	case corev1.PodSucceeded:
		return sandbox.StatusCompleted, nil
	case corev1.PodFailed:
		return sandbox.StatusFailed, nil
	default:
		return sandbox.StatusPending, nil
	}
}

func (l *kubeLauncher) Collect(ctx context.Context, sandboxID string) (string, error) {
	pod, err := l.getPod(ctx, sandboxID)
	if err != nil {
		return "", err
	}

	for _, cs := range pod.Status.ContainerStatuses {
		if cs.State.Terminated != nil && cs.State.Terminated.Message != "" {
			return cs.State.Terminated.Message, nil
		}
	}

	return "", nil
}

func (l *kubeLauncher) getPod(ctx context.Context, sandboxID string) (*corev1.Pod, error) {
	ref, ok := l.getRef(sandboxID)
	if !ok {
		// The pod name is the sandbox identifier, so a restart of this
		// process can still resolve it in the default namespace.
		ref = podRef{namespace: l.cfg.Namespace, podName: sandboxID}
	}

	pod, err := l.client.CoreV1().Pods(ref.namespace).Get(ctx, ref.podName, metav1.GetOptions{})
	if err != nil {
		return nil, &sandbox.NotFoundError{SandboxID: sandboxID}
	}

	return pod, nil
}

func (l *kubeLauncher) resourceRequirements() corev1.ResourceRequirements {
	requests := corev1.ResourceList{}

	if l.cfg.CPU != "" {
		if qty, err := resource.ParseQuantity(l.cfg.CPU); err == nil {
			requests[corev1.ResourceCPU] = qty
		}
	}

	if l.cfg.Memory != "" {
		if qty, err := resource.ParseQuantity(l.cfg.Memory); err == nil {
			requests[corev1.ResourceMemory] = qty
		}
	}

	if len(requests) == 0 {
		return corev1.ResourceRequirements{}
	}

	return corev1.ResourceRequirements{Requests: requests}
}

func (l *kubeLauncher) activeDeadlineSeconds() *int64 {
	if l.cfg.TTL <= 0 {
		return nil
	}

	seconds := int64(l.cfg.TTL.Seconds())
	return &seconds
}

func (l *kubeLauncher) getRef(sandboxID string) (podRef, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ref, ok := l.byID[sandboxID]
	return ref, ok
}

func (l *kubeLauncher) setRef(sandboxID string, ref podRef) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byID[sandboxID] = ref
}
