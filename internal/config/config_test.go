package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/utils"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("server address = %q", cfg.Server.Address)
	}
	if cfg.Workers.Count != 4 || cfg.Workers.QueueSize != 256 {
		t.Errorf("workers = %+v", cfg.Workers)
	}
	if cfg.Triage.Window != time.Hour {
		t.Errorf("window = %v", cfg.Triage.Window)
	}
	if cfg.Narrator.Enabled {
		t.Errorf("narrator enabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  address: ":9999"
workers:
  count: 2
triage:
  window: 30m
  families:
    MyCustomAlert: crashloop
  profiles:
    crashloop:
      baseImpact: 55
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":9999" {
		t.Errorf("server address = %q", cfg.Server.Address)
	}
	if cfg.Workers.Count != 2 {
		t.Errorf("worker count = %d", cfg.Workers.Count)
	}
	if cfg.Triage.Window != 30*time.Minute {
		t.Errorf("window = %v", cfg.Triage.Window)
	}
	if got := cfg.FamilyTable()["MyCustomAlert"]; got != models.FamilyCrashloop {
		t.Errorf("custom family mapping = %s", got)
	}
	// Built-in table entries survive the merge.
	if got := cfg.FamilyTable()["TargetDown"]; got != models.FamilyTargetDown {
		t.Errorf("built-in mapping lost: %s", got)
	}
	if got := cfg.ProfileFor(models.FamilyCrashloop).BaseImpact; got != 55 {
		t.Errorf("tuned base impact = %d", got)
	}
}

func TestLoadRejectsBadFamily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
triage:
  families:
    MyAlert: not_a_family
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("invalid family accepted")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatalf("missing file accepted")
	}
	if utils.KindOf(err) != utils.KindConfiguration {
		t.Errorf("error kind = %s, want configuration", utils.KindOf(err))
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TARKA_SERVER_ADDRESS", ":7070")
	t.Setenv("TARKA_WORKER_COUNT", "8")
	t.Setenv("TARKA_LOG_FORMAT", "json")
	t.Setenv("TARKA_TRIAGE_WINDOW", "2h")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Errorf("server address = %q", cfg.Server.Address)
	}
	if cfg.Workers.Count != 8 {
		t.Errorf("worker count = %d", cfg.Workers.Count)
	}
	if !cfg.Logging.JSON {
		t.Errorf("log format override ignored")
	}
	if cfg.Triage.Window != 2*time.Hour {
		t.Errorf("window = %v", cfg.Triage.Window)
	}
}

func TestProfileFallback(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := cfg.ProfileFor(models.Family("never-configured"))
	if got.BaseImpact != cfg.ProfileFor(models.FamilyUnknown).BaseImpact {
		t.Errorf("fallback profile = %+v", got)
	}
}

func TestOOMProfileRequiresCorroboration(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	oom := cfg.ProfileFor(models.FamilyOOMKill)
	if oom.Corroboration != "OOMKilled" {
		t.Errorf("oom profile = %+v", oom)
	}
	if oom.MissingCorroborationReason() != models.ReasonOOMCorroborationMissing {
		t.Errorf("oom missing-corroboration code = %s", oom.MissingCorroborationReason())
	}
}

func TestMissingCorroborationReasonFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
triage:
  profiles:
    pod_not_ready:
      baseImpact: 35
      corroboration: ContainersNotReady
      corroborationReason: READINESS_CORROBORATION_MISSING
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p := cfg.ProfileFor(models.FamilyPodNotReady)
	if got := p.MissingCorroborationReason(); got != models.ReasonCode("READINESS_CORROBORATION_MISSING") {
		t.Errorf("configured missing-corroboration code = %s", got)
	}

	// Profiles without the field keep the historical code.
	var empty Profile
	if empty.MissingCorroborationReason() != models.ReasonOOMCorroborationMissing {
		t.Errorf("empty profile fallback = %s", empty.MissingCorroborationReason())
	}
}
