package config

// Tier names a bundle of CPU/memory request-limit values for the dbt pod.
// These size the pod running the dbt CLI only; Spark compute resources are
// managed by the Kyuubi pod templates, not by this module.
type Tier string

const (
	TierDefault Tier = "default"
	TierHeavy   Tier = "heavy"
	TierLight   Tier = "light"
)

// TierSpec holds the resource request/limit values for one tier.
type TierSpec struct {
	CPURequest    string
	CPULimit      string
	MemoryRequest string
	MemoryLimit   string
}

// ResourceTier returns the resource values for the named tier. Unknown tier
// names fall back to the default tier; the lookup never fails.
func (s *Settings) ResourceTier(tier Tier) TierSpec {
	switch tier {
	case TierHeavy:
		return TierSpec{
			CPURequest:    "500m",
			CPULimit:      "2000m",
			MemoryRequest: "1Gi",
			MemoryLimit:   "4Gi",
		}
	case TierLight:
		return TierSpec{
			CPURequest:    "100m",
			CPULimit:      "500m",
			MemoryRequest: "256Mi",
			MemoryLimit:   "1Gi",
		}
	default:
		return TierSpec{
			CPURequest:    s.DefaultCPURequest,
			CPULimit:      s.DefaultCPULimit,
			MemoryRequest: s.DefaultMemoryRequest,
			MemoryLimit:   s.DefaultMemoryLimit,
		}
	}
}

// ScheduleManual is the sentinel for pipelines that only run when triggered
// by hand. Every development-tier schedule resolves to it.
const ScheduleManual = "@manual"

var schedules = map[Environment]map[string]string{
	EnvProduction: {
		"default":  "0 6 * * *",    // daily at 06:00
		"hourly":   "0 * * * *",    // every hour
		"critical": "*/30 * * * *", // every 30 minutes
	},
	EnvStaging: {
		"default":  "0 8 * * *",   // daily at 08:00
		"hourly":   "0 */2 * * *", // every 2 hours
		"critical": "0 */6 * * *", // every 6 hours
	},
	EnvDevelopment: {
		"default":  ScheduleManual,
		"hourly":   ScheduleManual,
		"critical": ScheduleManual,
	},
}

// Schedule returns the cron string for the given pipeline type in the
// configured environment. Unknown pipeline types fall back to that
// environment's default entry.
func (s *Settings) Schedule(pipelineType string) string {
	table, ok := schedules[s.Environment]
	if !ok {
		table = schedules[EnvDevelopment]
	}
	if cron, ok := table[pipelineType]; ok {
		return cron
	}
	return table["default"]
}
