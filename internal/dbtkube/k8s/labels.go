package k8s

import (
	corev1 "k8s.io/api/core/v1"

	"github.com/anhhoangdev/dbtkube/pkg/config"
)

// MonitoringLabels returns the standard label set stamped on every pipeline
// pod so cluster dashboards can group and filter by pipeline, task, and
// environment.
func MonitoringLabels(pipelineID, taskID string, env config.Environment, pipelineType string) map[string]string {
	return map[string]string{
		"app.kubernetes.io/name":         "data-platform",
		"app.kubernetes.io/component":    pipelineType,
		"app.kubernetes.io/part-of":      "data-platform",
		"data-platform.io/pipeline-id":   pipelineID,
		"data-platform.io/task-id":       taskID,
		"data-platform.io/environment":   string(env),
		"data-platform.io/pipeline-type": pipelineType,
	}
}

// NodeSelector returns the node selector for a task tier. Production pins
// pods to dedicated data-platform nodes, with heavy tasks routed to
// compute-intensive nodes. Other environments schedule anywhere.
func NodeSelector(env config.Environment, tier config.Tier) map[string]string {
	if env != config.EnvProduction {
		return nil
	}
	if tier == config.TierHeavy {
		return map[string]string{"workload-type": "compute-intensive"}
	}
	return map[string]string{"workload-type": "data-platform"}
}

// Tolerations returns the tolerations for a task tier. Only production
// heavy tasks need one, matching the compute-intensive node taint.
func Tolerations(env config.Environment, tier config.Tier) []corev1.Toleration {
	if env == config.EnvProduction && tier == config.TierHeavy {
		return []corev1.Toleration{{
			Key:      "workload-type",
			Operator: corev1.TolerationOpEqual,
			Value:    "compute-intensive",
			Effect:   corev1.TaintEffectNoSchedule,
		}}
	}
	return nil
}
