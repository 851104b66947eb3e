package jobspec

import (
	"strconv"

	"github.com/anhhoangdev/dbtkube/internal/dbtkube/domain"
)

// BuildEnvironment assembles the flat environment map injected into the pod.
// Layering order: tool directories, run identifiers, engine connection,
// invocation restatement, namespace, then the passthrough overlay. The
// passthrough map is applied last so operator-supplied values win on
// collision.
func BuildEnvironment(inv *domain.Invocation, cfg *Config, rc domain.RunContext) map[string]string {
	threads := inv.Threads
	if threads < 1 {
		threads = 1
	}

	env := map[string]string{
		// Tool layout
		"DBT_PROJECT_DIR":  cfg.ProjectDir,
		"DBT_PROFILES_DIR": cfg.ProfilesDir,
		"DBT_TARGET":       inv.Target,

		// Run identity, consumed by dbt macros and log lines
		"PIPELINE_ID":      cfg.PipelineID,
		"PIPELINE_TASK_ID": rc.TaskID,
		"PIPELINE_RUN_ID":  rc.RunID,
		"EXECUTION_DATE":   rc.DateString(),

		// Engine connection
		"KYUUBI_HOST":   cfg.SparkHost,
		"KYUUBI_PORT":   strconv.Itoa(cfg.SparkPort),
		"KYUUBI_SCHEMA": cfg.SparkSchema,

		// Invocation restatement for introspection inside the job
		"DBT_COMMAND":      string(inv.Command),
		"DBT_SELECT":       inv.Select,
		"DBT_EXCLUDE":      inv.Exclude,
		"DBT_FULL_REFRESH": strconv.FormatBool(inv.FullRefresh),
		"DBT_THREADS":      strconv.Itoa(threads),

		"K8S_NAMESPACE": cfg.Namespace,
	}

	// Passthrough wins last.
	for k, v := range cfg.ExtraEnvVars {
		env[k] = v
	}

	return env
}
