package models

// Family is the closed category of alert semantics used to select diagnostic
// modules, enrichment, and scoring profiles. Adding a family is a data change.
type Family string

const (
	FamilyCrashloop     Family = "crashloop"
	FamilyOOMKill       Family = "oom_kill"
	FamilyCPUThrottling Family = "cpu_throttling"
	FamilyPodNotReady   Family = "pod_not_ready"
	FamilyRolloutStuck  Family = "rollout_stuck"
	FamilyTargetDown    Family = "target_down"
	FamilyMeta          Family = "meta"
	FamilyUnknown       Family = "unknown"
)

// KnownFamilies lists every valid family value.
func KnownFamilies() []Family {
	return []Family{
		FamilyCrashloop,
		FamilyOOMKill,
		FamilyCPUThrottling,
		FamilyPodNotReady,
		FamilyRolloutStuck,
		FamilyTargetDown,
		FamilyMeta,
		FamilyUnknown,
	}
}

// ValidFamily reports whether the value names a known family.
func ValidFamily(f Family) bool {
	for _, known := range KnownFamilies() {
		if f == known {
			return true
		}
	}
	return false
}

// DefaultFamilyTable maps well-known alert names to families. The config layer
// may extend or override this table; unmatched names resolve to FamilyUnknown.
func DefaultFamilyTable() map[string]Family {
	return map[string]Family{
		"KubePodCrashLooping":               FamilyCrashloop,
		"PodCrashLooping":                   FamilyCrashloop,
		"KubeContainerOOMKilled":            FamilyOOMKill,
		"ContainerOOMKilled":                FamilyOOMKill,
		"CPUThrottlingHigh":                 FamilyCPUThrottling,
		"KubePodNotReady":                   FamilyPodNotReady,
		"KubeDeploymentRolloutStuck":        FamilyRolloutStuck,
		"KubeStatefulSetUpdateNotRolledOut": FamilyRolloutStuck,
		"TargetDown":                        FamilyTargetDown,
		"InstanceDown":                      FamilyTargetDown,
		"Watchdog":                          FamilyMeta,
		"InfoInhibitor":                     FamilyMeta,
		"AlertmanagerClusterDown":           FamilyMeta,
	}
}

// FamilyOf resolves an alert name against a family table, falling back to
// FamilyUnknown when the name is not listed.
func FamilyOf(alertName string, table map[string]Family) Family {
	if f, ok := table[alertName]; ok && ValidFamily(f) {
		return f
	}
	return FamilyUnknown
}
