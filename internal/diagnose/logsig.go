package diagnose

import (
	"fmt"
	"strings"

	"github.com/tarkyaio/tarka/internal/models"
)

// logSignature is one known error pattern scanned for in collected log lines.
type logSignature struct {
	name    string
	needles []string
	title   string
	test    string
}

// Signature order is the emission order; earlier entries are the stronger
// tells and carry slightly higher confidence.
var logSignatures = []logSignature{
	{
		name:    "oom",
		needles: []string{"OOMKilled", "out of memory", "oom-kill"},
		title:   "logs mention the process being killed for memory",
		test:    "compare container memory limit against working-set usage",
	},
	{
		name:    "panic",
		needles: []string{"panic:", "fatal error:"},
		title:   "logs contain a runtime panic",
		test:    "inspect the stack trace in the previous container logs",
	},
	{
		name:    "connection-refused",
		needles: []string{"connection refused"},
		title:   "logs show refused connections to a dependency",
		test:    "check the dependency service endpoints and network policy",
	},
	{
		name:    "permission-denied",
		needles: []string{"permission denied"},
		title:   "logs show permission failures",
		test:    "review the service account, RBAC bindings, and volume mounts",
	},
	{
		name:    "disk-full",
		needles: []string{"no space left on device"},
		title:   "logs report a full filesystem",
		test:    "check node and volume disk usage for the target",
	},
	{
		name:    "timeout",
		needles: []string{"context deadline exceeded", "i/o timeout"},
		title:   "logs show timeouts against a dependency",
		test:    "check latency and saturation of the downstream dependency",
	},
}

// LogSignatureModule scans collected log lines for known error signatures and
// emits one hypothesis per matched signature.
type LogSignatureModule struct {
	noCollect
}

func (m *LogSignatureModule) Name() string { return "log-signature" }

func (m *LogSignatureModule) Applicable(inv *models.Investigation) bool {
	return inv.Evidence.Logs.State == models.SectionPresent &&
		inv.Evidence.Logs.Status == models.LogsOK &&
		len(inv.Evidence.Logs.Lines) > 0
}

func (m *LogSignatureModule) Diagnose(inv *models.Investigation) ([]models.Hypothesis, error) {
	logs := inv.Evidence.Logs

	var hyps []models.Hypothesis
	base := 75
	for _, sig := range logSignatures {
		line, hits := scan(logs.Lines, sig.needles)
		if hits == 0 {
			continue
		}
		hyps = append(hyps, models.Hypothesis{
			ID:         "logs/signature:" + sig.name,
			Title:      sig.title,
			Confidence: base,
			Evidence: []string{
				fmt.Sprintf("%d of %d collected lines match; first: %s", hits, len(logs.Lines), truncateLine(line, 160)),
				fmt.Sprintf("logs queried from %s", logs.Backend),
			},
			NextTests: []string{sig.test},
			Supports:  []string{"logs.lines"},
		})
		base -= 5
	}
	return hyps, nil
}

func scan(lines []string, needles []string) (first string, hits int) {
	for _, line := range lines {
		for _, n := range needles {
			if strings.Contains(line, n) {
				if hits == 0 {
					first = line
				}
				hits++
				break
			}
		}
	}
	return first, hits
}

func truncateLine(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
