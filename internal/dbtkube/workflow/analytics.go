package workflow

import (
	"github.com/anhhoangdev/dbtkube/internal/dbtkube/domain"
	"github.com/anhhoangdev/dbtkube/pkg/config"
)

// AnalyticsPipelineID is the canonical id of the dbt analytics pipeline.
const AnalyticsPipelineID = "dbt-analytics"

// AnalyticsPipeline declares the standard dbt analytics graph:
//
//	validate-connection -> install-deps -> seed-reference-data
//	  -> run-staging-models -> test-staging-models
//	  -> run-marts-models -> test-marts-models
//	  -> generate-docs
//
// Each task runs against the settings' dbt target with the environment's
// variable bundle. The marts run is the heavy step and gets the larger tier
// plus more Spark executors.
func AnalyticsPipeline(settings *config.Settings) (*Pipeline, error) {
	target := settings.DbtTarget
	envVars := settings.DbtVarsForEnvironment()

	pipeline := NewPipeline(AnalyticsPipelineID, Policy{
		Retries:       settings.DefaultRetries,
		RetryDelay:    settings.RetryDelay,
		MaxActiveRuns: settings.MaxActiveRuns,
		Schedule:      settings.Schedule("default"),
	})

	tasks := []*Task{
		{
			ID:         "validate-connection",
			Invocation: domain.Invocation{Command: domain.CommandDebug, Target: target},
			Tier:       config.TierLight,
		},
		{
			ID:         "install-deps",
			Invocation: domain.Invocation{Command: domain.CommandDeps, Target: target},
			Tier:       config.TierLight,
			Upstream:   []string{"validate-connection"},
		},
		{
			ID: "seed-reference-data",
			Invocation: domain.Invocation{
				Command: domain.CommandSeed,
				Target:  target,
				Vars:    envVars,
				Threads: settings.DbtThreads,
			},
			Tier:     config.TierDefault,
			Upstream: []string{"install-deps"},
		},
		{
			ID: "run-staging-models",
			Invocation: domain.Invocation{
				Command:       domain.CommandRun,
				Select:        "tag:staging",
				Target:        target,
				Vars:          envVars,
				Threads:       settings.DbtThreads,
				ExecutorCount: 2,
			},
			Tier:     config.TierDefault,
			Upstream: []string{"seed-reference-data"},
		},
		{
			ID: "test-staging-models",
			Invocation: domain.Invocation{
				Command: domain.CommandTest,
				Select:  "tag:staging",
				Target:  target,
				Vars:    envVars,
				Threads: settings.DbtThreads,
			},
			Tier:     config.TierDefault,
			Upstream: []string{"run-staging-models"},
		},
		{
			ID: "run-marts-models",
			Invocation: domain.Invocation{
				Command:       domain.CommandRun,
				Select:        "tag:marts",
				Target:        target,
				Vars:          envVars,
				Threads:       settings.DbtThreads,
				ExecutorCount: 4,
			},
			Tier:     config.TierHeavy,
			Upstream: []string{"test-staging-models"},
		},
		{
			ID: "test-marts-models",
			Invocation: domain.Invocation{
				Command: domain.CommandTest,
				Select:  "tag:marts",
				Target:  target,
				Vars:    envVars,
				Threads: settings.DbtThreads,
			},
			Tier:     config.TierDefault,
			Upstream: []string{"run-marts-models"},
		},
		{
			ID:         "generate-docs",
			Invocation: domain.Invocation{Command: domain.CommandDocsGenerate, Target: target},
			Tier:       config.TierLight,
			Upstream:   []string{"test-marts-models"},
		},
	}

	for _, task := range tasks {
		if err := pipeline.AddTask(task); err != nil {
			return nil, err
		}
	}

	if err := pipeline.Validate(); err != nil {
		return nil, err
	}
	return pipeline, nil
}
