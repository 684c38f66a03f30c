package models

import (
	"fmt"
	"time"
)

// TargetType enumerates what kind of resource an alert points at. "unknown" is
// a first-class outcome, never an absent value.
type TargetType string

const (
	TargetPod      TargetType = "pod"
	TargetWorkload TargetType = "workload"
	TargetService  TargetType = "service"
	TargetNode     TargetType = "node"
	TargetCluster  TargetType = "cluster"
	TargetUnknown  TargetType = "unknown"
)

// TargetRef is the stable identity of the affected resource, derived once from
// alert labels by the resolver.
type TargetRef struct {
	Type         TargetType
	Cluster      string
	Namespace    string
	Pod          string
	Container    string
	WorkloadKind string
	WorkloadName string
	Service      string
	Instance     string
	Team         string
	RoutingHint  string
}

// Known reports whether identity resolution succeeded.
func (t TargetRef) Known() bool {
	return t.Type != "" && t.Type != TargetUnknown
}

// Display returns a short human identity string for labels and reports.
func (t TargetRef) Display() string {
	switch t.Type {
	case TargetPod:
		if t.Namespace != "" {
			return fmt.Sprintf("pod %s/%s", t.Namespace, t.Pod)
		}
		return "pod " + t.Pod
	case TargetWorkload:
		if t.Namespace != "" {
			return fmt.Sprintf("%s %s/%s", t.WorkloadKind, t.Namespace, t.WorkloadName)
		}
		return fmt.Sprintf("%s %s", t.WorkloadKind, t.WorkloadName)
	case TargetService:
		if t.Namespace != "" {
			return fmt.Sprintf("service %s/%s", t.Namespace, t.Service)
		}
		return "service " + t.Service
	case TargetNode:
		return "node " + t.Instance
	case TargetCluster:
		return "cluster " + t.Cluster
	default:
		return "unknown target"
	}
}

// TimeWindow bounds every evidence query for one investigation so all
// collaborators observe the same interval.
type TimeWindow struct {
	Start time.Time
	End   time.Time
	Label string
}

// WindowEnding derives a window of the given length ending at the reference
// time, labelled with the duration (e.g. "1h0m0s" collapses to "1h").
func WindowEnding(end time.Time, length time.Duration) TimeWindow {
	if length <= 0 {
		length = time.Hour
	}
	return TimeWindow{
		Start: end.Add(-length).UTC(),
		End:   end.UTC(),
		Label: shortDuration(length),
	}
}

func shortDuration(d time.Duration) string {
	s := d.String()
	for _, suffix := range []string{"m0s", "h0m"} {
		if len(s) > len(suffix) && s[len(s)-len(suffix):] == suffix {
			s = s[:len(s)-2]
		}
	}
	return s
}
