package jobspec

import (
	"fmt"
	"strings"
	"text/template"
)

// connectTimeoutSeconds bounds the nc poll against the engine endpoint.
const connectTimeoutSeconds = 30

// scriptTemplate is the execution script run inside the pod. set -e gives
// fail-fast semantics: any failing step aborts the job, and the completion
// marker only prints after the dbt command exits zero.
var scriptTemplate = template.Must(template.New("script").Parse(`set -e

echo "Starting dbt execution"
echo "Task: $PIPELINE_TASK_ID"
echo "Run: $PIPELINE_RUN_ID"
echo "Command: {{.CommandLine}}"
echo "Engine: $KYUUBI_HOST:$KYUUBI_PORT"

mkdir -p {{.ProfilesDir}}
cat > {{.ProfilesDir}}/profiles.yml << 'EOF'
{{.Profiles}}
EOF

echo "Waiting for engine at {{.SparkHost}}:{{.SparkPort}}"
timeout {{.ConnectTimeout}}s sh -c 'while ! nc -z {{.SparkHost}} {{.SparkPort}}; do sleep 1; done' || (echo "engine connection failed" && exit 1)

cd {{.ProjectDir}}
dbt --version
{{.CommandLine}}

echo "dbt execution completed"
`))

// shellSafeChars are the characters an argument may contain without
// needing quotes when the script is word-split by the shell.
const shellSafeChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789@%+=:,./_-"

// quoteShellArg single-quotes an argument unless it is already shell-safe.
// Embedded single quotes are closed, escaped, and reopened.
func quoteShellArg(arg string) string {
	if arg != "" && strings.Trim(arg, shellSafeChars) == "" {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// shellCommandLine flattens an argument vector into a single shell command
// line that word-splits back into exactly the same vector. Without this the
// --vars value, which always contains spaces, would arrive at dbt as
// several broken arguments.
func shellCommandLine(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = quoteShellArg(arg)
	}
	return strings.Join(quoted, " ")
}

type scriptParams struct {
	CommandLine    string
	Profiles       string
	ProfilesDir    string
	ProjectDir     string
	SparkHost      string
	SparkPort      int
	ConnectTimeout int
}

// RenderScript produces the shell payload that provisions the profiles
// document, verifies engine connectivity, and runs the assembled command.
func RenderScript(command []string, profiles string, cfg *Config) (string, error) {
	var sb strings.Builder
	err := scriptTemplate.Execute(&sb, scriptParams{
		CommandLine:    shellCommandLine(command),
		Profiles:       strings.TrimRight(profiles, "\n"),
		ProfilesDir:    cfg.ProfilesDir,
		ProjectDir:     cfg.ProjectDir,
		SparkHost:      cfg.SparkHost,
		SparkPort:      cfg.SparkPort,
		ConnectTimeout: connectTimeoutSeconds,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render execution script: %w", err)
	}
	return sb.String(), nil
}
