package jobspec

import (
	"sort"
	"strconv"
	"strings"

	"github.com/anhhoangdev/dbtkube/internal/dbtkube/domain"
)

// CommandArgs assembles the dbt argument vector for an invocation. Flags
// with allow-lists (--vars, --full-refresh, --threads) are emitted only for
// the subcommands that accept them, even when the invocation carries values.
func CommandArgs(inv *domain.Invocation, profilesDir string) []string {
	cmd := append([]string{"dbt"}, inv.Command.Args()...)

	cmd = append(cmd, "--target", inv.Target)
	cmd = append(cmd, "--profiles-dir", profilesDir)

	if inv.Select != "" {
		cmd = append(cmd, "--select", inv.Select)
	}
	if inv.Exclude != "" {
		cmd = append(cmd, "--exclude", inv.Exclude)
	}

	if len(inv.Vars) > 0 && inv.Command.AcceptsVars() {
		cmd = append(cmd, "--vars", renderVars(inv.Vars))
	}

	if inv.FullRefresh && inv.Command.AcceptsFullRefresh() {
		cmd = append(cmd, "--full-refresh")
	}

	if inv.Command.AcceptsThreads() {
		threads := inv.Threads
		if threads < 1 {
			threads = 1
		}
		cmd = append(cmd, "--threads", strconv.Itoa(threads))
	}

	return cmd
}

// renderVars formats the variable map the way dbt's --vars flag expects:
// a brace-delimited key:value list. Keys are sorted so the rendered command
// is stable across runs.
func renderVars(vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+":"+vars[k])
	}
	return "{" + strings.Join(pairs, " ") + "}"
}
