package investigate

import (
	"github.com/helmcode/kubectl-remediate/pkg/llm"
)

// Catalog is the fixed set of read-only diagnostic tools offered to
// the model during investigation. Anything that mutates cluster state
// is deliberately absent; fixes only run through the gated execution
// phase.
func Catalog() []llm.Tool {
	namespaceProp := map[string]interface{}{
		"type":        "string",
		"description": "Kubernetes namespace",
	}
	nameProp := map[string]interface{}{
		"type":        "string",
		"description": "Resource name",
	}

	return []llm.Tool{
		{
			Name:        "list_pods",
			Description: "List pods in a namespace with phase, restart counts and container statuses. Optionally filter by label selector.",
			InputSchema: schema(map[string]interface{}{
				"namespace": namespaceProp,
				"selector": map[string]interface{}{
					"type":        "string",
					"description": "Label selector, e.g. app=nginx",
				},
			}, "namespace"),
		},
		{
			Name:        "describe_pod",
			Description: "Show a pod's spec summary, conditions, container states and recent restart reasons.",
			InputSchema: schema(map[string]interface{}{
				"namespace": namespaceProp,
				"name":      nameProp,
			}, "namespace", "name"),
		},
		{
			Name:        "pod_logs",
			Description: "Fetch recent logs from a pod container. Use previous=true for the last terminated container.",
			InputSchema: schema(map[string]interface{}{
				"namespace": namespaceProp,
				"name":      nameProp,
				"container": map[string]interface{}{
					"type":        "string",
					"description": "Container name (defaults to the first container)",
				},
				"previous": map[string]interface{}{
					"type":        "boolean",
					"description": "Read logs of the previous container instance",
				},
				"tail_lines": map[string]interface{}{
					"type":        "integer",
					"description": "Number of trailing lines to return (default 100)",
				},
			}, "namespace", "name"),
		},
		{
			Name:        "list_events",
			Description: "List recent events in a namespace, newest last. The fastest way to see scheduling, image and probe failures.",
			InputSchema: schema(map[string]interface{}{
				"namespace": namespaceProp,
			}, "namespace"),
		},
		{
			Name:        "list_deployments",
			Description: "List deployments in a namespace with replica and availability counts.",
			InputSchema: schema(map[string]interface{}{
				"namespace": namespaceProp,
			}, "namespace"),
		},
		{
			Name:        "describe_deployment",
			Description: "Show a deployment's replica status, conditions, strategy and pod template images.",
			InputSchema: schema(map[string]interface{}{
				"namespace": namespaceProp,
				"name":      nameProp,
			}, "namespace", "name"),
		},
		{
			Name:        "describe_service",
			Description: "Show a service's type, ports, selector and ready endpoint addresses.",
			InputSchema: schema(map[string]interface{}{
				"namespace": namespaceProp,
				"name":      nameProp,
			}, "namespace", "name"),
		},
		{
			Name:        "list_nodes",
			Description: "List cluster nodes with readiness, taints and resource pressure conditions.",
			InputSchema: schema(map[string]interface{}{}),
		},
	}
}

func schema(props map[string]interface{}, required ...string) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
