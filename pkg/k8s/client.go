// Package k8s implements the read-only diagnostic tool catalog against
// a live cluster using client-go. It is the default ToolExecutor for
// investigations.
package k8s

import (
	"context"
	"fmt"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

const defaultLogTail = 100

type Client struct {
	clientset kubernetes.Interface
}

// NewClient creates a Kubernetes client, trying in-cluster config
// first and falling back to the given kubeconfig path.
func NewClient(kubeconfig string) (*Client, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create config: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	return &Client{clientset: clientset}, nil
}

// NewClientWithClientset wraps an existing clientset (fake clientsets
// in tests).
func NewClientWithClientset(clientset kubernetes.Interface) *Client {
	return &Client{clientset: clientset}
}

// Execute dispatches one diagnostic tool call. Every tool is
// read-only; an unknown tool name is an error the model can reason
// about.
func (c *Client) Execute(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	switch name {
	case "list_pods":
		return c.listPods(ctx, stringArg(args, "namespace"), stringArg(args, "selector"))
	case "describe_pod":
		return c.describePod(ctx, stringArg(args, "namespace"), stringArg(args, "name"))
	case "pod_logs":
		return c.podLogs(ctx, args)
	case "list_events":
		return c.listEvents(ctx, stringArg(args, "namespace"))
	case "list_deployments":
		return c.listDeployments(ctx, stringArg(args, "namespace"))
	case "describe_deployment":
		return c.describeDeployment(ctx, stringArg(args, "namespace"), stringArg(args, "name"))
	case "describe_service":
		return c.describeService(ctx, stringArg(args, "namespace"), stringArg(args, "name"))
	case "list_nodes":
		return c.listNodes(ctx)
	default:
		return "", fmt.Errorf("unknown diagnostic tool: %s", name)
	}
}

func (c *Client) listPods(ctx context.Context, namespace, selector string) (string, error) {
	pods, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return "", fmt.Errorf("failed to list pods in %s: %w", namespace, err)
	}
	if len(pods.Items) == 0 {
		return fmt.Sprintf("no pods found in namespace %s", namespace), nil
	}

	var b strings.Builder
	for _, pod := range pods.Items {
		restarts := int32(0)
		ready := 0
		for _, cs := range pod.Status.ContainerStatuses {
			restarts += cs.RestartCount
			if cs.Ready {
				ready++
			}
		}
		fmt.Fprintf(&b, "%s  phase=%s ready=%d/%d restarts=%d", pod.Name, pod.Status.Phase, ready, len(pod.Spec.Containers), restarts)
		if reason := podWaitingReason(&pod); reason != "" {
			fmt.Fprintf(&b, " reason=%s", reason)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (c *Client) describePod(ctx context.Context, namespace, name string) (string, error) {
	pod, err := c.clientset.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get pod %s/%s: %w", namespace, name, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pod: %s/%s\n", namespace, name)
	fmt.Fprintf(&b, "Phase: %s\n", pod.Status.Phase)
	fmt.Fprintf(&b, "Node: %s\n", pod.Spec.NodeName)
	if pod.Status.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", pod.Status.Reason)
	}
	for _, cond := range pod.Status.Conditions {
		fmt.Fprintf(&b, "Condition: %s=%s %s\n", cond.Type, cond.Status, cond.Message)
	}
	for _, cs := range pod.Status.ContainerStatuses {
		fmt.Fprintf(&b, "Container %s: ready=%t restarts=%d image=%s\n", cs.Name, cs.Ready, cs.RestartCount, cs.Image)
		if cs.State.Waiting != nil {
			fmt.Fprintf(&b, "  waiting: %s %s\n", cs.State.Waiting.Reason, cs.State.Waiting.Message)
		}
		if cs.State.Terminated != nil {
			fmt.Fprintf(&b, "  terminated: %s exitCode=%d\n", cs.State.Terminated.Reason, cs.State.Terminated.ExitCode)
		}
		if cs.LastTerminationState.Terminated != nil {
			t := cs.LastTerminationState.Terminated
			fmt.Fprintf(&b, "  last termination: %s exitCode=%d\n", t.Reason, t.ExitCode)
		}
	}
	for _, ctr := range pod.Spec.Containers {
		req := ctr.Resources.Requests
		lim := ctr.Resources.Limits
		fmt.Fprintf(&b, "Spec container %s: requests=%v limits=%v\n", ctr.Name, req, lim)
	}
	return b.String(), nil
}

func (c *Client) podLogs(ctx context.Context, args map[string]interface{}) (string, error) {
	namespace := stringArg(args, "namespace")
	name := stringArg(args, "name")

	tail := int64(defaultLogTail)
	if v, ok := args["tail_lines"].(float64); ok && v > 0 {
		tail = int64(v)
	}
	opts := &corev1.PodLogOptions{TailLines: &tail}
	if container := stringArg(args, "container"); container != "" {
		opts.Container = container
	}
	if prev, ok := args["previous"].(bool); ok {
		opts.Previous = prev
	}

	raw, err := c.clientset.CoreV1().Pods(namespace).GetLogs(name, opts).DoRaw(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get logs for pod %s/%s: %w", namespace, name, err)
	}
	if len(raw) == 0 {
		return "(no log output)", nil
	}
	return string(raw), nil
}

func (c *Client) listEvents(ctx context.Context, namespace string) (string, error) {
	events, err := c.clientset.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to list events in %s: %w", namespace, err)
	}
	if len(events.Items) == 0 {
		return fmt.Sprintf("no events in namespace %s", namespace), nil
	}

	items := events.Items
	sort.Slice(items, func(i, j int) bool {
		return items[i].LastTimestamp.Before(&items[j].LastTimestamp)
	})

	var b strings.Builder
	for _, ev := range items {
		fmt.Fprintf(&b, "%s %s %s/%s: %s (x%d)\n",
			ev.Type, ev.Reason, ev.InvolvedObject.Kind, ev.InvolvedObject.Name, ev.Message, ev.Count)
	}
	return b.String(), nil
}

func (c *Client) listDeployments(ctx context.Context, namespace string) (string, error) {
	deployments, err := c.clientset.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to list deployments in %s: %w", namespace, err)
	}
	if len(deployments.Items) == 0 {
		return fmt.Sprintf("no deployments found in namespace %s", namespace), nil
	}

	var b strings.Builder
	for _, d := range deployments.Items {
		fmt.Fprintf(&b, "%s  replicas=%d ready=%d available=%d updated=%d\n",
			d.Name, deref(d.Spec.Replicas), d.Status.ReadyReplicas, d.Status.AvailableReplicas, d.Status.UpdatedReplicas)
	}
	return b.String(), nil
}

func (c *Client) describeDeployment(ctx context.Context, namespace, name string) (string, error) {
	d, err := c.clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get deployment %s/%s: %w", namespace, name, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Deployment: %s/%s\n", namespace, name)
	fmt.Fprintf(&b, "Replicas: desired=%d ready=%d available=%d unavailable=%d\n",
		deref(d.Spec.Replicas), d.Status.ReadyReplicas, d.Status.AvailableReplicas, d.Status.UnavailableReplicas)
	fmt.Fprintf(&b, "Strategy: %s\n", d.Spec.Strategy.Type)
	for _, cond := range d.Status.Conditions {
		fmt.Fprintf(&b, "Condition: %s=%s reason=%s %s\n", cond.Type, cond.Status, cond.Reason, cond.Message)
	}
	for _, ctr := range d.Spec.Template.Spec.Containers {
		fmt.Fprintf(&b, "Container %s: image=%s\n", ctr.Name, ctr.Image)
	}
	if d.Spec.Selector != nil {
		fmt.Fprintf(&b, "Selector: %s\n", metav1.FormatLabelSelector(d.Spec.Selector))
	}
	return b.String(), nil
}

func (c *Client) describeService(ctx context.Context, namespace, name string) (string, error) {
	svc, err := c.clientset.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get service %s/%s: %w", namespace, name, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Service: %s/%s type=%s clusterIP=%s\n", namespace, name, svc.Spec.Type, svc.Spec.ClusterIP)
	for _, port := range svc.Spec.Ports {
		fmt.Fprintf(&b, "Port: %d -> %s/%s\n", port.Port, port.TargetPort.String(), port.Protocol)
	}
	if len(svc.Spec.Selector) > 0 {
		fmt.Fprintf(&b, "Selector: %v\n", svc.Spec.Selector)
	}

	endpoints, err := c.clientset.CoreV1().Endpoints(namespace).Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		ready := 0
		notReady := 0
		for _, subset := range endpoints.Subsets {
			ready += len(subset.Addresses)
			notReady += len(subset.NotReadyAddresses)
		}
		fmt.Fprintf(&b, "Endpoints: ready=%d notReady=%d\n", ready, notReady)
	}
	return b.String(), nil
}

func (c *Client) listNodes(ctx context.Context) (string, error) {
	nodes, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to list nodes: %w", err)
	}

	var b strings.Builder
	for _, node := range nodes.Items {
		ready := "Unknown"
		var pressure []string
		for _, cond := range node.Status.Conditions {
			switch cond.Type {
			case corev1.NodeReady:
				ready = string(cond.Status)
			case corev1.NodeMemoryPressure, corev1.NodeDiskPressure, corev1.NodePIDPressure:
				if cond.Status == corev1.ConditionTrue {
					pressure = append(pressure, string(cond.Type))
				}
			}
		}
		fmt.Fprintf(&b, "%s  ready=%s", node.Name, ready)
		if len(pressure) > 0 {
			fmt.Fprintf(&b, " pressure=%s", strings.Join(pressure, ","))
		}
		if len(node.Spec.Taints) > 0 {
			var taints []string
			for _, t := range node.Spec.Taints {
				taints = append(taints, fmt.Sprintf("%s=%s:%s", t.Key, t.Value, t.Effect))
			}
			fmt.Fprintf(&b, " taints=%s", strings.Join(taints, ","))
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func podWaitingReason(pod *corev1.Pod) string {
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.State.Waiting != nil && cs.State.Waiting.Reason != "" {
			return cs.State.Waiting.Reason
		}
	}
	return ""
}

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func deref(n *int32) int32 {
	if n == nil {
		return 0
	}
	return *n
}
