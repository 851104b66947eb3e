package jobspec

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/anhhoangdev/dbtkube/internal/dbtkube/domain"
)

// Connection policy baked into every rendered profile. The retry values
// cover transient thrift disconnects during Spark executor startup.
const (
	profileConnectRetries = 5
	profileConnectTimeout = 60
)

// profilesDoc is the top-level profiles.yml shape: one profile per project
// name, each with a default target and its outputs.
type profilesDoc map[string]profile

type profile struct {
	Target  string            `yaml:"target"`
	Outputs map[string]output `yaml:"outputs"`
}

type output struct {
	Type           string            `yaml:"type"`
	Method         string            `yaml:"method"`
	Host           string            `yaml:"host"`
	Port           int               `yaml:"port"`
	User           string            `yaml:"user"`
	Schema         string            `yaml:"schema"`
	ConnectRetries int               `yaml:"connect_retries"`
	ConnectTimeout int               `yaml:"connect_timeout"`
	RetryAll       bool              `yaml:"retry_all"`
	SessionTimeout int               `yaml:"session_timeout"`
	SparkConfig    map[string]string `yaml:"spark_config"`
}

// RenderProfiles produces the profiles.yml document for one invocation,
// marshaled directly from typed fields. The spark config block templates
// executor pod names and the app name after the pipeline and task so the
// engine's pods are traceable back to the task that spawned them.
func RenderProfiles(inv *domain.Invocation, cfg *Config, rc domain.RunContext) (string, error) {
	sparkConfig := map[string]string{
		"spark.kubernetes.executor.podNamePrefix": fmt.Sprintf("dbt-spark-%s", cfg.PipelineID),
		"spark.app.name":                          fmt.Sprintf("%s-%s", cfg.PipelineID, rc.TaskID),
	}
	if inv.ExecutorCount > 0 {
		sparkConfig["spark.executor.instances"] = strconv.Itoa(inv.ExecutorCount)
	}

	doc := profilesDoc{
		cfg.ProjectName: {
			Target: inv.Target,
			Outputs: map[string]output{
				inv.Target: {
					Type:           "spark",
					Method:         "thrift",
					Host:           cfg.SparkHost,
					Port:           cfg.SparkPort,
					User:           "admin",
					Schema:         cfg.SparkSchema,
					ConnectRetries: profileConnectRetries,
					ConnectTimeout: profileConnectTimeout,
					RetryAll:       true,
					SessionTimeout: cfg.SessionTimeout,
					SparkConfig:    sparkConfig,
				},
			},
		},
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to render profiles document: %w", err)
	}
	return string(data), nil
}
