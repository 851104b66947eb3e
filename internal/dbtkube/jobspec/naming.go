package jobspec

import (
	"strings"
)

// maxPodNameLength is the DNS-1123 limit on kubernetes object names.
const maxPodNameLength = 63

// PodName derives the deterministic pod name for an invocation: the
// sanitized selection expression (or "unknown" when none is given) plus the
// run's timestamp token. Same inputs, same name.
func PodName(selectExpr, timestampToken string) string {
	model := "unknown"
	if selectExpr != "" {
		model = sanitizeNameComponent(selectExpr)
	}

	name := "dbt-" + model + "-" + strings.ToLower(timestampToken)
	if len(name) > maxPodNameLength {
		name = strings.TrimRight(name[:maxPodNameLength], "-")
	}
	return name
}

// sanitizeNameComponent turns a dbt selection expression into a string that
// satisfies pod naming constraints: "tag:" prefixes dropped, remaining
// colons, spaces, underscores, and plus signs replaced with hyphens,
// lowercased.
func sanitizeNameComponent(s string) string {
	s = strings.ReplaceAll(s, "tag:", "")
	replacer := strings.NewReplacer(" ", "-", ":", "-", "_", "-", "+", "-", ",", "-")
	s = replacer.Replace(s)
	s = strings.ToLower(s)
	return strings.Trim(s, "-")
}
