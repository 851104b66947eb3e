package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anhhoangdev/dbtkube/pkg/errors"
)

func TestDefaultSettings(t *testing.T) {
	// Test that DefaultSettings has sensible values
	if DefaultSettings.Environment != EnvDevelopment {
		t.Errorf("Expected development environment, got %s", DefaultSettings.Environment)
	}

	if DefaultSettings.SparkPort != 10009 {
		t.Errorf("Expected default spark port 10009, got %d", DefaultSettings.SparkPort)
	}

	if DefaultSettings.DefaultRetries != 2 {
		t.Errorf("Expected default retries 2, got %d", DefaultSettings.DefaultRetries)
	}

	if DefaultSettings.RetryDelay != 5*time.Minute {
		t.Errorf("Expected retry delay 5m, got %s", DefaultSettings.RetryDelay)
	}

	if DefaultSettings.MaxActiveRuns != 1 {
		t.Errorf("Expected max active runs 1, got %d", DefaultSettings.MaxActiveRuns)
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Environment
	}{
		{"development", "dev", EnvDevelopment},
		{"staging", "staging", EnvStaging},
		{"production", "prod", EnvProduction},
		{"unknown falls back to development", "qa", EnvDevelopment},
		{"empty falls back to development", "", EnvDevelopment},
		{"case sensitive", "PROD", EnvDevelopment},
		{"garbage never fails", "!!$%", EnvDevelopment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseEnvironment(tt.input))
		})
	}
}

func TestResolveDefaults(t *testing.T) {
	clearSettingsEnv(t)

	settings, source, err := Resolve("")
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, settings.Environment)
	assert.Equal(t, "analytics", settings.DbtProjectName)
	assert.Equal(t, "dev", settings.DbtTarget)
	assert.Equal(t, 4, settings.DbtThreads)
	assert.Equal(t, "kyuubi-dbt.kyuubi.svc.cluster.local", settings.SparkHost)
	assert.Contains(t, source, "built-in defaults")
}

func TestResolveEnvOverrides(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("DATA_PLATFORM_ENV", "staging")
	t.Setenv("DBT_PROJECT_NAME", "reporting")
	t.Setenv("DBT_THREADS", "8")
	t.Setenv("SPARK_HOST", "kyuubi.svc")
	t.Setenv("SPARK_PORT", "10010")
	t.Setenv("K8S_NAMESPACE", "data-staging")
	t.Setenv("WAREHOUSE_BASE_PATH", "s3a://lake")

	settings, _, err := Resolve("")
	require.NoError(t, err)

	assert.Equal(t, EnvStaging, settings.Environment)
	assert.Equal(t, "reporting", settings.DbtProjectName)
	assert.Equal(t, "staging", settings.DbtTarget) // target follows the environment tag
	assert.Equal(t, 8, settings.DbtThreads)
	assert.Equal(t, "kyuubi.svc", settings.SparkHost)
	assert.Equal(t, 10010, settings.SparkPort)
	assert.Equal(t, "data-staging", settings.Namespace)
	assert.Equal(t, "s3a://lake/staging", settings.WarehousePath())
}

func TestResolveExplicitOverrideWinsOverEnvVar(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("DATA_PLATFORM_ENV", "staging")

	settings, _, err := Resolve("prod")
	require.NoError(t, err)
	assert.Equal(t, EnvProduction, settings.Environment)
}

func TestResolveUnknownEnvironmentNeverFails(t *testing.T) {
	clearSettingsEnv(t)

	settings, _, err := Resolve("not-a-real-environment")
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, settings.Environment)
}

func TestResolveBadNumericOverrideIgnored(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("DBT_THREADS", "lots")
	t.Setenv("SPARK_PORT", "not-a-port")

	settings, _, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, 4, settings.DbtThreads)
	assert.Equal(t, 10009, settings.SparkPort)
}

func TestResolvePassthroughCapture(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("DBT_CUSTOM_MACRO_FLAG", "on")
	t.Setenv("SPARK_EXTRA_CONF", "spark.sql.shuffle.partitions=64")
	t.Setenv("WAREHOUSE_REGION", "eu-west-1")
	t.Setenv("UNRELATED_VAR", "ignored")

	settings, _, err := Resolve("")
	require.NoError(t, err)

	assert.Equal(t, "on", settings.ExtraEnvVars["DBT_CUSTOM_MACRO_FLAG"])
	assert.Equal(t, "spark.sql.shuffle.partitions=64", settings.ExtraEnvVars["SPARK_EXTRA_CONF"])
	assert.Equal(t, "eu-west-1", settings.ExtraEnvVars["WAREHOUSE_REGION"])
	assert.NotContains(t, settings.ExtraEnvVars, "UNRELATED_VAR")
}

func TestResolveFromFile(t *testing.T) {
	clearSettingsEnv(t)

	configFile := filepath.Join(t.TempDir(), "dbtkube.yml")
	content := `
dbtProjectName: warehouse
sparkPort: 10011
namespace: analytics
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))
	t.Setenv("DBTKUBE_CONFIG_PATH", configFile)

	settings, source, err := Resolve("")
	require.NoError(t, err)

	assert.Equal(t, configFile, source)
	assert.Equal(t, "warehouse", settings.DbtProjectName)
	assert.Equal(t, 10011, settings.SparkPort)
	assert.Equal(t, "analytics", settings.Namespace)
}

func TestResolveFileDbtTargetPreserved(t *testing.T) {
	clearSettingsEnv(t)

	configFile := filepath.Join(t.TempDir(), "dbtkube.yml")
	content := `
dbtTarget: warehouse_ci
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))
	t.Setenv("DBTKUBE_CONFIG_PATH", configFile)
	t.Setenv("DATA_PLATFORM_ENV", "staging")

	settings, _, err := Resolve("")
	require.NoError(t, err)

	// The file-supplied target wins over the environment-tag default.
	assert.Equal(t, EnvStaging, settings.Environment)
	assert.Equal(t, "warehouse_ci", settings.DbtTarget)

	// DBT_TARGET still overrides the file.
	t.Setenv("DBT_TARGET", "hotfix")
	settings, _, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "hotfix", settings.DbtTarget)
}

func TestCapturePassthrough(t *testing.T) {
	environ := []string{
		"DBT_TARGET=prod",
		"SPARK_MASTER=yarn",
		"WAREHOUSE_BASE_PATH=s3a://x",
		"PATH=/usr/bin",
		"malformed-no-equals",
	}

	extra := capturePassthrough(environ)
	assert.Len(t, extra, 3)
	assert.Equal(t, "prod", extra["DBT_TARGET"])
	assert.NotContains(t, extra, "PATH")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults are valid", func(s *Settings) {}, false},
		{"zero spark port", func(s *Settings) { s.SparkPort = 0 }, true},
		{"port above range", func(s *Settings) { s.SparkPort = 70000 }, true},
		{"zero threads", func(s *Settings) { s.DbtThreads = 0 }, true},
		{"empty project name", func(s *Settings) { s.DbtProjectName = "" }, true},
		{"negative retries", func(s *Settings) { s.DefaultRetries = -1 }, true},
		{"zero max active runs", func(s *Settings) { s.MaxActiveRuns = 0 }, true},
		{"alerts without webhook", func(s *Settings) { s.EnableSlackAlerts = true }, true},
		{"alerts with webhook", func(s *Settings) {
			s.EnableSlackAlerts = true
			s.SlackWebhookURL = "https://hooks.slack.com/services/x"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings
			tt.mutate(&settings)
			err := settings.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsConfigError(err))
				assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDbtVarsForEnvironment(t *testing.T) {
	t.Run("production", func(t *testing.T) {
		settings := DefaultSettings
		settings.Environment = EnvProduction

		vars := settings.DbtVarsForEnvironment()
		assert.Equal(t, "prod", vars["environment"])
		assert.Equal(t, "s3a://warehouse/prod", vars["warehouse_path"])
		assert.Equal(t, "false", vars["enable_profiling"])
		assert.Equal(t, "true", vars["enable_data_quality_checks"])
		assert.NotContains(t, vars, "sample_size") // sampling disabled entirely
	})

	t.Run("staging", func(t *testing.T) {
		settings := DefaultSettings
		settings.Environment = EnvStaging

		vars := settings.DbtVarsForEnvironment()
		assert.Equal(t, "true", vars["enable_profiling"])
		assert.Equal(t, "10000", vars["sample_size"])
		assert.Equal(t, "true", vars["enable_data_quality_checks"])
	})

	t.Run("development", func(t *testing.T) {
		settings := DefaultSettings

		vars := settings.DbtVarsForEnvironment()
		assert.Equal(t, "true", vars["enable_profiling"])
		assert.Equal(t, "1000", vars["sample_size"])
		assert.Equal(t, "false", vars["enable_data_quality_checks"])
	})

	t.Run("user vars are merged", func(t *testing.T) {
		settings := DefaultSettings
		settings.DbtVars = map[string]string{"lookback_days": "7"}

		vars := settings.DbtVarsForEnvironment()
		assert.Equal(t, "7", vars["lookback_days"])
	})
}

func TestResourceTier(t *testing.T) {
	settings := DefaultSettings

	tests := []struct {
		name string
		tier Tier
		want TierSpec
	}{
		{"default tier", TierDefault, TierSpec{"250m", "1000m", "512Mi", "2Gi"}},
		{"heavy tier", TierHeavy, TierSpec{"500m", "2000m", "1Gi", "4Gi"}},
		{"light tier", TierLight, TierSpec{"100m", "500m", "256Mi", "1Gi"}},
		{"unknown falls back to default", Tier("xl"), TierSpec{"250m", "1000m", "512Mi", "2Gi"}},
		{"empty falls back to default", Tier(""), TierSpec{"250m", "1000m", "512Mi", "2Gi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, settings.ResourceTier(tt.tier))
		})
	}
}

func TestSchedule(t *testing.T) {
	tests := []struct {
		name         string
		env          Environment
		pipelineType string
		want         string
	}{
		{"production hourly", EnvProduction, "hourly", "0 * * * *"},
		{"production default", EnvProduction, "default", "0 6 * * *"},
		{"production critical", EnvProduction, "critical", "*/30 * * * *"},
		{"production unknown type falls back", EnvProduction, "weekly", "0 6 * * *"},
		{"staging hourly", EnvStaging, "hourly", "0 */2 * * *"},
		{"development default is manual", EnvDevelopment, "default", ScheduleManual},
		{"development hourly is manual", EnvDevelopment, "hourly", ScheduleManual},
		{"development unknown is manual", EnvDevelopment, "anything", ScheduleManual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings
			settings.Environment = tt.env
			assert.Equal(t, tt.want, settings.Schedule(tt.pipelineType))
		})
	}
}

// clearSettingsEnv unsets every env var Resolve reads so tests do not leak
// into each other through the process environment.
func clearSettingsEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DATA_PLATFORM_ENV", "DBT_PROJECT_NAME", "DBT_TARGET", "DBT_THREADS",
		"K8S_NAMESPACE", "DBT_IMAGE", "DBT_VOLUME_PATH", "PIPELINE_VOLUME_PATH",
		"SPARK_HOST", "SPARK_PORT", "SPARK_SCHEMA", "WAREHOUSE_BASE_PATH",
		"ENABLE_SLACK_ALERTS", "SLACK_WEBHOOK_URL", "DBTKUBE_CONFIG_PATH",
	} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}
