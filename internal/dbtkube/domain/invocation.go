// Package domain holds the value objects shared between the job spec builder
// and the task graph: dbt commands, per-task invocations, and the runtime
// identifiers a single pipeline run carries.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/anhhoangdev/dbtkube/pkg/errors"
)

// Command is one of the supported dbt subcommands.
type Command string

const (
	CommandRun             Command = "run"
	CommandTest            Command = "test"
	CommandDebug           Command = "debug"
	CommandDeps            Command = "deps"
	CommandDocsGenerate    Command = "docs generate"
	CommandSeed            Command = "seed"
	CommandSnapshot        Command = "snapshot"
	CommandCompile         Command = "compile"
	CommandSourceFreshness Command = "source freshness"
)

// knownCommands is the closed set the builder accepts. Anything else is a
// graph-construction error, not a runtime one.
var knownCommands = map[Command]bool{
	CommandRun:             true,
	CommandTest:            true,
	CommandDebug:           true,
	CommandDeps:            true,
	CommandDocsGenerate:    true,
	CommandSeed:            true,
	CommandSnapshot:        true,
	CommandCompile:         true,
	CommandSourceFreshness: true,
}

// Flag allow-lists. dbt rejects these flags on the other subcommands, so the
// builder must not emit them there even when the invocation carries values.
var (
	varsCommands = map[Command]bool{
		CommandRun:      true,
		CommandTest:     true,
		CommandCompile:  true,
		CommandSeed:     true,
		CommandSnapshot: true,
	}
	fullRefreshCommands = map[Command]bool{
		CommandRun:  true,
		CommandSeed: true,
	}
	threadsCommands = map[Command]bool{
		CommandRun:      true,
		CommandTest:     true,
		CommandCompile:  true,
		CommandSeed:     true,
		CommandSnapshot: true,
	}
)

// IsKnown returns true if the command is in the supported set.
func (c Command) IsKnown() bool {
	return knownCommands[c]
}

// Args returns the subcommand as an argument vector. Two-word subcommands
// ("docs generate", "source freshness") split into separate argv entries.
func (c Command) Args() []string {
	return strings.Fields(string(c))
}

// AcceptsVars returns true if the subcommand takes a --vars flag.
func (c Command) AcceptsVars() bool {
	return varsCommands[c]
}

// AcceptsFullRefresh returns true if the subcommand takes --full-refresh.
func (c Command) AcceptsFullRefresh() bool {
	return fullRefreshCommands[c]
}

// AcceptsThreads returns true if the subcommand takes a --threads flag.
func (c Command) AcceptsThreads() bool {
	return threadsCommands[c]
}

// Invocation describes a single dbt task: the subcommand plus the
// per-invocation parameters. Created at graph-build time and read-only
// afterward.
type Invocation struct {
	Command       Command           // dbt subcommand from the fixed set
	Select        string            // model selection expression (optional)
	Exclude       string            // model exclusion expression (optional)
	Vars          map[string]string // extra dbt variables (optional)
	Target        string            // dbt target name
	FullRefresh   bool              // rebuild incremental models from scratch
	Threads       int               // dbt thread count (0 means default of 1)
	ExecutorCount int               // Spark executor instance hint (0 means engine default)
}

// Validate checks the invocation for structural errors. Runtime failures
// (connectivity, tool exit codes) are the cluster's concern, not ours.
func (inv *Invocation) Validate() error {
	if !inv.Command.IsKnown() {
		return fmt.Errorf("%w: %q", errors.ErrUnknownCommand, inv.Command)
	}
	if inv.Target == "" {
		return fmt.Errorf("%w: missing target", errors.ErrInvalidInvocation)
	}
	if inv.Threads < 0 {
		return fmt.Errorf("%w: negative thread count %d", errors.ErrInvalidInvocation, inv.Threads)
	}
	return nil
}

// RunContext carries the identifiers one pipeline run injects into every job:
// the run and task ids plus the logical execution date.
type RunContext struct {
	RunID         string
	TaskID        string
	ExecutionDate time.Time
}

// TimestampToken returns the lowercase token appended to pod names. Same
// execution date, same token; pod naming stays deterministic per run.
func (rc RunContext) TimestampToken() string {
	return strings.ToLower(rc.ExecutionDate.UTC().Format("20060102t150405"))
}

// DateString returns the execution date in the form dbt macros expect.
func (rc RunContext) DateString() string {
	return rc.ExecutionDate.UTC().Format("2006-01-02")
}
