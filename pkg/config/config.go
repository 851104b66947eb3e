// Package config resolves pipeline settings from the environment and an
// optional YAML settings file, and exposes the derived lookups (dbt variable
// bundles, resource tiers, schedules) consumed by the job spec builder.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anhhoangdev/dbtkube/pkg/errors"
)

// Environment identifies the deployment tier a pipeline runs against.
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
)

// ParseEnvironment maps a string to a known environment tag. Unknown values
// fall back to development rather than failing; existing pipelines depend on
// the lenient behavior.
func ParseEnvironment(s string) Environment {
	switch Environment(s) {
	case EnvDevelopment, EnvStaging, EnvProduction:
		return Environment(s)
	default:
		return EnvDevelopment
	}
}

// passthroughPrefixes are the env var prefixes forwarded verbatim into every
// job's environment.
var passthroughPrefixes = []string{"DBT_", "SPARK_", "WAREHOUSE_"}

// Settings holds the complete pipeline configuration. Immutable once
// resolved; shared by reference across all task-building calls.
type Settings struct {
	// Environment settings
	Environment Environment `yaml:"environment"`

	// dbt configuration
	DbtProjectName string            `yaml:"dbtProjectName"`
	DbtTarget      string            `yaml:"dbtTarget"`
	DbtThreads     int               `yaml:"dbtThreads"`
	DbtVars        map[string]string `yaml:"dbtVars"`

	// Kubernetes configuration
	Namespace          string `yaml:"namespace"`
	DbtImage           string `yaml:"dbtImage"`
	DbtImagePullPolicy string `yaml:"dbtImagePullPolicy"`

	// Volume configuration
	DbtVolumePath      string `yaml:"dbtVolumePath"`
	PipelineVolumePath string `yaml:"pipelineVolumePath"`

	// Default pod resource tier values
	DefaultCPURequest    string `yaml:"defaultCpuRequest"`
	DefaultCPULimit      string `yaml:"defaultCpuLimit"`
	DefaultMemoryRequest string `yaml:"defaultMemoryRequest"`
	DefaultMemoryLimit   string `yaml:"defaultMemoryLimit"`

	// Spark/Kyuubi connection
	SparkHost   string `yaml:"sparkHost"`
	SparkPort   int    `yaml:"sparkPort"`
	SparkSchema string `yaml:"sparkSchema"`

	// Pipeline retry/concurrency policy
	DefaultRetries int           `yaml:"defaultRetries"`
	RetryDelay     time.Duration `yaml:"retryDelay"`
	MaxActiveRuns  int           `yaml:"maxActiveRuns"`

	// Data storage
	WarehouseBasePath string `yaml:"warehouseBasePath"`

	// Monitoring and alerting
	EnableSlackAlerts bool   `yaml:"enableSlackAlerts"`
	SlackWebhookURL   string `yaml:"slackWebhookUrl"`

	// Passthrough environment variables, captured by prefix at resolve time
	ExtraEnvVars map[string]string `yaml:"-"`
}

// DefaultSettings provides the built-in configuration values.
var DefaultSettings = Settings{
	Environment:          EnvDevelopment,
	DbtProjectName:       "analytics",
	DbtTarget:            "dev",
	DbtThreads:           4,
	Namespace:            "pipelines",
	DbtImage:             "dbt-spark:latest",
	DbtImagePullPolicy:   "IfNotPresent",
	DbtVolumePath:        "/opt/dbt",
	PipelineVolumePath:   "/opt/pipelines",
	DefaultCPURequest:    "250m",
	DefaultCPULimit:      "1000m",
	DefaultMemoryRequest: "512Mi",
	DefaultMemoryLimit:   "2Gi",
	SparkHost:            "kyuubi-dbt.kyuubi.svc.cluster.local",
	SparkPort:            10009,
	SparkSchema:          "default",
	DefaultRetries:       2,
	RetryDelay:           5 * time.Minute,
	MaxActiveRuns:        1,
	WarehouseBasePath:    "s3a://warehouse",
	EnableSlackAlerts:    false,
}

// Resolve builds the pipeline settings once per process.
//  1. Start from DefaultSettings.
//  2. Layer in an optional YAML settings file (DBTKUBE_CONFIG_PATH,
//     ./dbtkube.yml, /etc/dbtkube/dbtkube.yml).
//  3. Apply named environment variable overrides.
//  4. Capture passthrough variables by prefix.
//
// The environment tag comes from envOverride when non-empty, otherwise from
// DATA_PLATFORM_ENV; unrecognized values fall back to development.
// Returns (settings, source, error) - source indicates where the file layer
// came from.
func Resolve(envOverride string) (*Settings, string, error) {
	settings := DefaultSettings

	source, err := loadFromFile(&settings)
	if err != nil {
		return nil, "", errors.WrapConfigError("settings", "file", err)
	}
	targetFromFile := settings.DbtTarget != DefaultSettings.DbtTarget

	envStr := envOverride
	if envStr == "" {
		envStr = os.Getenv("DATA_PLATFORM_ENV")
	}
	if envStr != "" {
		settings.Environment = ParseEnvironment(envStr)
	}

	// dbt target defaults to the environment tag unless the settings file
	// or DBT_TARGET set it explicitly.
	if !targetFromFile {
		settings.DbtTarget = string(settings.Environment)
	}

	if val := os.Getenv("DBT_PROJECT_NAME"); val != "" {
		settings.DbtProjectName = val
	}
	if val := os.Getenv("DBT_TARGET"); val != "" {
		settings.DbtTarget = val
	}
	if val := os.Getenv("DBT_THREADS"); val != "" {
		if threads, convErr := strconv.Atoi(val); convErr == nil {
			settings.DbtThreads = threads
		}
	}
	if val := os.Getenv("K8S_NAMESPACE"); val != "" {
		settings.Namespace = val
	}
	if val := os.Getenv("DBT_IMAGE"); val != "" {
		settings.DbtImage = val
	}
	if val := os.Getenv("DBT_VOLUME_PATH"); val != "" {
		settings.DbtVolumePath = val
	}
	if val := os.Getenv("PIPELINE_VOLUME_PATH"); val != "" {
		settings.PipelineVolumePath = val
	}
	if val := os.Getenv("SPARK_HOST"); val != "" {
		settings.SparkHost = val
	}
	if val := os.Getenv("SPARK_PORT"); val != "" {
		if port, convErr := strconv.Atoi(val); convErr == nil {
			settings.SparkPort = port
		}
	}
	if val := os.Getenv("SPARK_SCHEMA"); val != "" {
		settings.SparkSchema = val
	}
	if val := os.Getenv("WAREHOUSE_BASE_PATH"); val != "" {
		settings.WarehouseBasePath = val
	}
	if val := os.Getenv("ENABLE_SLACK_ALERTS"); val != "" {
		settings.EnableSlackAlerts = strings.EqualFold(val, "true")
	}
	if val := os.Getenv("SLACK_WEBHOOK_URL"); val != "" {
		settings.SlackWebhookURL = val
	}

	settings.ExtraEnvVars = capturePassthrough(os.Environ())

	if e := settings.Validate(); e != nil {
		return nil, "", fmt.Errorf("settings validation failed: %w", e)
	}

	return &settings, source, nil
}

// capturePassthrough copies every process env var matching one of the fixed
// prefixes into the passthrough map. Late-bound configuration reaches the
// jobs without code changes this way.
func capturePassthrough(environ []string) map[string]string {
	extra := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		for _, prefix := range passthroughPrefixes {
			if strings.HasPrefix(name, prefix) {
				extra[name] = value
				break
			}
		}
	}
	return extra
}

// loadFromFile loads settings from the first available YAML file.
// Does not return an error if no file is found - defaults are used instead.
func loadFromFile(settings *Settings) (string, error) {
	configPaths := []string{
		os.Getenv("DBTKUBE_CONFIG_PATH"),
		"./dbtkube.yml",
		"/etc/dbtkube/dbtkube.yml",
	}

	for _, path := range configPaths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read settings file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, settings); err != nil {
			return "", fmt.Errorf("failed to parse settings file %s: %w", path, err)
		}

		return path, nil
	}

	return "built-in defaults (no settings file found)", nil
}

// Validate performs validation of the resolved settings.
// Returns an error describing the first validation failure found.
func (s *Settings) Validate() error {
	if s.SparkPort < 1 || s.SparkPort > 65535 {
		return errors.NewConfigError("settings", "sparkPort", fmt.Errorf("port %d out of range", s.SparkPort))
	}

	if s.DbtThreads < 1 {
		return errors.NewConfigError("settings", "dbtThreads", fmt.Errorf("thread count %d must be positive", s.DbtThreads))
	}

	if s.DbtProjectName == "" {
		return errors.NewConfigError("settings", "dbtProjectName", fmt.Errorf("project name cannot be empty"))
	}

	if s.DefaultRetries < 0 {
		return errors.NewConfigError("settings", "defaultRetries", fmt.Errorf("retry count %d cannot be negative", s.DefaultRetries))
	}

	if s.MaxActiveRuns < 1 {
		return errors.NewConfigError("settings", "maxActiveRuns", fmt.Errorf("max active runs %d must be positive", s.MaxActiveRuns))
	}

	if s.EnableSlackAlerts && s.SlackWebhookURL == "" {
		return errors.NewConfigError("settings", "slackWebhookUrl", fmt.Errorf("alerts enabled but no webhook URL configured"))
	}

	return nil
}

// WarehousePath returns the environment-scoped warehouse root.
func (s *Settings) WarehousePath() string {
	return s.WarehouseBasePath + "/" + string(s.Environment)
}

// DbtVarsForEnvironment returns the dbt variable bundle for the configured
// environment. Production disables profiling and sampling but enables data
// quality checks; staging profiles with a bounded sample; development
// profiles with a small sample and skips quality checks.
func (s *Settings) DbtVarsForEnvironment() map[string]string {
	vars := map[string]string{
		"environment":    string(s.Environment),
		"warehouse_path": s.WarehousePath(),
	}
	for k, v := range s.DbtVars {
		vars[k] = v
	}

	switch s.Environment {
	case EnvProduction:
		vars["enable_profiling"] = "false"
		vars["enable_data_quality_checks"] = "true"
	case EnvStaging:
		vars["enable_profiling"] = "true"
		vars["sample_size"] = "10000"
		vars["enable_data_quality_checks"] = "true"
	default: // development
		vars["enable_profiling"] = "true"
		vars["sample_size"] = "1000"
		vars["enable_data_quality_checks"] = "false"
	}

	return vars
}
