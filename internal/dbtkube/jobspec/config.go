// Package jobspec builds the complete pod specification for one dbt task:
// the command line, the rendered profiles document, the execution script,
// the environment map, and the final pod request submitted to the cluster.
package jobspec

import (
	"github.com/anhhoangdev/dbtkube/pkg/config"
)

// Default filesystem layout inside the dbt image.
const (
	DefaultProjectDir  = "/dbt"
	DefaultProfilesDir = "/dbt/profiles"

	// ProjectVolumeName is the fixed volume carrying the dbt project tree.
	ProjectVolumeName = "dbt-projects-storage"

	// StartupTimeoutSeconds bounds how long the cluster waits for the pod
	// to leave Pending before the task counts as failed.
	StartupTimeoutSeconds = 300
)

// Config holds the per-task-family settings shared by reference across all
// invocations of a pipeline. Never mutated after construction.
type Config struct {
	PipelineID string

	ProjectName string
	ProjectDir  string
	ProfilesDir string

	Namespace       string
	Image           string
	ImagePullPolicy string

	SparkHost   string
	SparkPort   int
	SparkSchema string

	// SessionTimeout is the engine-side session timeout in seconds. Applies
	// to the Kyuubi session, not the pod.
	SessionTimeout int

	// Tier names the resource class of the dbt pod itself; Resources holds
	// the resolved quantities. The Spark executors are sized by the engine's
	// own pod templates and are out of our hands.
	Tier      config.Tier
	Resources config.TierSpec

	Environment config.Environment

	DbtVolumeHostPath string
	DbtVolumeName     string

	ExtraEnvVars map[string]string
}

// NewConfig derives a job config from resolved pipeline settings.
func NewConfig(settings *config.Settings, pipelineID string) *Config {
	return &Config{
		PipelineID:        pipelineID,
		ProjectName:       settings.DbtProjectName,
		ProjectDir:        DefaultProjectDir,
		ProfilesDir:       DefaultProfilesDir,
		Namespace:         settings.Namespace,
		Image:             settings.DbtImage,
		ImagePullPolicy:   settings.DbtImagePullPolicy,
		SparkHost:         settings.SparkHost,
		SparkPort:         settings.SparkPort,
		SparkSchema:       settings.SparkSchema,
		SessionTimeout:    300,
		Tier:              config.TierDefault,
		Resources:         settings.ResourceTier(config.TierDefault),
		Environment:       settings.Environment,
		DbtVolumeHostPath: settings.DbtVolumePath,
		DbtVolumeName:     ProjectVolumeName,
		ExtraEnvVars:      settings.ExtraEnvVars,
	}
}

// ForTier returns a copy of the config with a different dbt pod tier.
// The original is left untouched so it stays safe to share.
func (c *Config) ForTier(tier config.Tier, resources config.TierSpec) *Config {
	clone := *c
	clone.Tier = tier
	clone.Resources = resources
	return &clone
}
