package jobspec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anhhoangdev/dbtkube/internal/dbtkube/domain"
)

func TestCommandArgsRun(t *testing.T) {
	inv := &domain.Invocation{
		Command: domain.CommandRun,
		Select:  "tag:staging",
		Target:  "dev",
		Threads: 1,
	}

	cmd := CommandArgs(inv, "/dbt/profiles")
	expected := []string{
		"dbt", "run",
		"--target", "dev",
		"--profiles-dir", "/dbt/profiles",
		"--select", "tag:staging",
		"--threads", "1",
	}
	assert.Equal(t, expected, cmd)
}

func TestCommandArgsDebug(t *testing.T) {
	inv := &domain.Invocation{
		Command: domain.CommandDebug,
		Target:  "dev",
	}

	cmd := CommandArgs(inv, "/dbt/profiles")
	assert.Equal(t, []string{"dbt", "debug", "--target", "dev", "--profiles-dir", "/dbt/profiles"}, cmd)
}

func TestCommandArgsTwoWordSubcommand(t *testing.T) {
	inv := &domain.Invocation{
		Command: domain.CommandDocsGenerate,
		Target:  "prod",
	}

	cmd := CommandArgs(inv, "/dbt/profiles")
	assert.Equal(t, []string{"dbt", "docs", "generate", "--target", "prod", "--profiles-dir", "/dbt/profiles"}, cmd)
}

func TestCommandArgsVarsOnlyForAllowedCommands(t *testing.T) {
	vars := map[string]string{"environment": "dev"}

	for _, cmd := range []domain.Command{
		domain.CommandDebug, domain.CommandDeps,
		domain.CommandDocsGenerate, domain.CommandSourceFreshness,
	} {
		inv := &domain.Invocation{Command: cmd, Target: "dev", Vars: vars}
		assert.NotContains(t, CommandArgs(inv, "/dbt/profiles"), "--vars",
			"%q must not emit --vars", cmd)
	}

	inv := &domain.Invocation{Command: domain.CommandRun, Target: "dev", Vars: vars}
	assert.Contains(t, CommandArgs(inv, "/dbt/profiles"), "--vars")
}

func TestCommandArgsVarsRenderedSorted(t *testing.T) {
	inv := &domain.Invocation{
		Command: domain.CommandRun,
		Target:  "dev",
		Vars: map[string]string{
			"warehouse_path": "s3a://warehouse/dev",
			"environment":    "dev",
			"sample_size":    "1000",
		},
	}

	cmd := CommandArgs(inv, "/dbt/profiles")
	assert.Contains(t, cmd, "{environment:dev sample_size:1000 warehouse_path:s3a://warehouse/dev}")
}

func TestCommandArgsFullRefreshOnlyForRunAndSeed(t *testing.T) {
	for _, tt := range []struct {
		cmd  domain.Command
		want bool
	}{
		{domain.CommandRun, true},
		{domain.CommandSeed, true},
		{domain.CommandTest, false},
		{domain.CommandCompile, false},
		{domain.CommandSnapshot, false},
		{domain.CommandDebug, false},
	} {
		inv := &domain.Invocation{Command: tt.cmd, Target: "dev", FullRefresh: true}
		got := CommandArgs(inv, "/dbt/profiles")
		if tt.want {
			assert.Contains(t, got, "--full-refresh", "%q", tt.cmd)
		} else {
			assert.NotContains(t, got, "--full-refresh", "%q", tt.cmd)
		}
	}
}

func TestCommandArgsThreadsDefaultToOne(t *testing.T) {
	inv := &domain.Invocation{Command: domain.CommandTest, Target: "dev"}
	cmd := CommandArgs(inv, "/dbt/profiles")
	assert.Equal(t, []string{"dbt", "test", "--target", "dev", "--profiles-dir", "/dbt/profiles", "--threads", "1"}, cmd)
}

func TestCommandArgsExclude(t *testing.T) {
	inv := &domain.Invocation{
		Command: domain.CommandRun,
		Select:  "tag:marts",
		Exclude: "tag:deprecated",
		Target:  "prod",
		Threads: 4,
	}

	cmd := CommandArgs(inv, "/dbt/profiles")
	assert.Contains(t, cmd, "--exclude")
	assert.Contains(t, cmd, "tag:deprecated")
}
