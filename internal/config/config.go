package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/utils"
)

// Config captures everything required to boot the triage engine. It is built
// once at startup and passed by reference; there is no global registry.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Narrator NarratorConfig `yaml:"narrator"`
	Store    StoreConfig    `yaml:"store"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
	Workers  WorkerConfig   `yaml:"workers"`
	Triage   TriageConfig   `yaml:"triage"`
}

// ServerConfig controls the HTTP listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// GatewayConfig configures the HTTP evidence gateway collaborator.
type GatewayConfig struct {
	BaseURL     string        `yaml:"baseURL"`
	ClusterPath string        `yaml:"clusterPath"`
	MetricsPath string        `yaml:"metricsPath"`
	LogsPath    string        `yaml:"logsPath"`
	ScopePath   string        `yaml:"scopePath"`
	Timeout     time.Duration `yaml:"timeout"`
}

// NarratorConfig gates the optional language-model narrative collaborator.
type NarratorConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"maxTokens"`
	Budget    time.Duration `yaml:"budget"`
}

// StoreConfig controls the SQLite persistence collaborator.
type StoreConfig struct {
	Path         string        `yaml:"path"`
	DedupeBucket time.Duration `yaml:"dedupeBucket"`
}

// CacheConfig controls the Valkey-backed dedupe fast path. When disabled an
// in-memory LRU window is used instead.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	DedupeTTL    time.Duration `yaml:"dedupeTTL"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// WorkerConfig bounds the investigation worker pool and its delivery contract.
type WorkerConfig struct {
	Count             int           `yaml:"count"`
	QueueSize         int           `yaml:"queueSize"`
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`
	VisibilityTimeout time.Duration `yaml:"visibilityTimeout"`
}

// LabelOverride redirects identity resolution for families whose generic label
// names the scrape target rather than the affected resource.
type LabelOverride struct {
	Family     string `yaml:"family"`
	Misleading string `yaml:"misleading"`
	Alternate  string `yaml:"alternate"`
}

// Profile carries the per-family scoring calibration. Weights are data so a
// golden-scenario corpus can tune them without code changes. Corroboration
// names the cluster signal that must back the alert; CorroborationReason is
// the audit code recorded when that signal is absent.
type Profile struct {
	BaseImpact          int    `yaml:"baseImpact"`
	Corroboration       string `yaml:"corroboration"`
	CorroborationReason string `yaml:"corroborationReason"`
}

// MissingCorroborationReason returns the audit code for an absent
// corroboration signal, defaulting to the OOM code for profiles predating the
// field.
func (p Profile) MissingCorroborationReason() models.ReasonCode {
	if p.CorroborationReason != "" {
		return models.ReasonCode(p.CorroborationReason)
	}
	return models.ReasonOOMCorroborationMissing
}

// TriageConfig holds the family taxonomy, resolver overrides, scoring
// profiles, and the evidence window length.
type TriageConfig struct {
	Window    time.Duration      `yaml:"window"`
	Families  map[string]string  `yaml:"families"`
	Overrides []LabelOverride    `yaml:"overrides"`
	Profiles  map[string]Profile `yaml:"profiles"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("TARKA_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, utils.ConfigurationError("config.load", fmt.Sprintf("config file %s not found", path), err)
			}
			return nil, utils.ConfigurationError("config.load", "read config", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, utils.ConfigurationError("config.load", "parse config", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, utils.ConfigurationError("config.validate", "invalid configuration", err)
	}
	return &cfg, nil
}

// FamilyTable merges the built-in alertname table with configured entries.
func (c *Config) FamilyTable() map[string]models.Family {
	table := models.DefaultFamilyTable()
	for name, fam := range c.Triage.Families {
		table[name] = models.Family(fam)
	}
	return table
}

// ProfileFor returns the scoring profile for a family, falling back to the
// unknown-family profile.
func (c *Config) ProfileFor(fam models.Family) Profile {
	if p, ok := c.Triage.Profiles[string(fam)]; ok {
		return p
	}
	return c.Triage.Profiles[string(models.FamilyUnknown)]
}

func (c *Config) validate() error {
	for name, fam := range c.Triage.Families {
		if !models.ValidFamily(models.Family(fam)) {
			return fmt.Errorf("config: alert %q maps to unknown family %q", name, fam)
		}
	}
	for _, ov := range c.Triage.Overrides {
		if ov.Family == "" || ov.Alternate == "" {
			return fmt.Errorf("config: label override needs family and alternate (got %+v)", ov)
		}
	}
	if c.Workers.Count <= 0 {
		return fmt.Errorf("config: workers.count must be positive")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Gateway: GatewayConfig{
			ClusterPath: "/api/v1/evidence/cluster",
			MetricsPath: "/api/v1/evidence/metrics",
			LogsPath:    "/api/v1/evidence/logs",
			ScopePath:   "/api/v1/evidence/scope",
			Timeout:     5 * time.Second,
		},
		Narrator: NarratorConfig{
			Enabled:   false,
			Model:     "claude-sonnet-4-5",
			MaxTokens: 1024,
			Budget:    20 * time.Second,
		},
		Store: StoreConfig{
			Path:         "tarka.db",
			DedupeBucket: 15 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			DedupeTTL:    30 * time.Minute,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Workers: WorkerConfig{
			Count:             4,
			QueueSize:         256,
			HeartbeatInterval: 15 * time.Second,
			VisibilityTimeout: 60 * time.Second,
		},
		Triage: TriageConfig{
			Window: time.Hour,
			Overrides: []LabelOverride{
				{Family: string(models.FamilyTargetDown), Misleading: "pod", Alternate: "exported_pod"},
				{Family: string(models.FamilyCPUThrottling), Misleading: "instance", Alternate: "pod"},
			},
			Profiles: map[string]Profile{
				string(models.FamilyCrashloop): {BaseImpact: 40},
				string(models.FamilyOOMKill): {
					BaseImpact:          45,
					Corroboration:       "OOMKilled",
					CorroborationReason: string(models.ReasonOOMCorroborationMissing),
				},
				string(models.FamilyCPUThrottling): {BaseImpact: 30},
				string(models.FamilyPodNotReady):   {BaseImpact: 35},
				string(models.FamilyRolloutStuck):  {BaseImpact: 40},
				string(models.FamilyTargetDown):    {BaseImpact: 50},
				string(models.FamilyMeta):          {BaseImpact: 5},
				string(models.FamilyUnknown):       {BaseImpact: 25},
			},
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TARKA_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("TARKA_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("TARKA_GATEWAY_BASE_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := os.Getenv("TARKA_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TARKA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TARKA_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("TARKA_NARRATOR_ENABLED"); v != "" {
		cfg.Narrator.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("TARKA_NARRATOR_MODEL"); v != "" {
		cfg.Narrator.Model = v
	}
	if v := os.Getenv("TARKA_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers.Count = n
		}
	}
	if v := os.Getenv("TARKA_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("TARKA_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("TARKA_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("TARKA_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("TARKA_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("TARKA_CACHE_TLS"); strings.EqualFold(v, "true") || v == "1" {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("TARKA_TRIAGE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Triage.Window = d
		}
	}
}
