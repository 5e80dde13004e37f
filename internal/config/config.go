// Package config loads and validates the pipeline configuration. All
// tunables live in a YAML file; a small set of deploy-varying values
// (database DSN, pushgateway address) may also arrive through environment
// variables, applied once at load time. Nothing below the load boundary
// reads ambient process state: the rest of the application receives the
// resolved Config (or pieces of it) explicitly.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load as fallbacks for fields left
// empty in the YAML file.
const (
	EnvConfigPath  = "CHURNETL_CONFIG"
	envDatabaseDSN = "DATABASE_DSN"
	envPushgateway = "CHURNETL_PUSHGATEWAY"
)

// Config is the root configuration for one pipeline process.
type Config struct {
	Job     string        `yaml:"job"`
	Source  SourceConfig  `yaml:"source"`
	Layers  LayersConfig  `yaml:"layers"`
	Storage StorageConfig `yaml:"storage"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// SourceConfig selects and parameterizes the raw-dataset provider.
type SourceConfig struct {
	Kind       string   `yaml:"kind"` // "file" or "http"
	Path       string   `yaml:"path"` // file provider: local path to the raw CSV
	URL        string   `yaml:"url"`  // http provider: download URL
	Timeout    Duration `yaml:"timeout"`
	MaxRetries int      `yaml:"maxRetries"`
}

// LayersConfig holds the on-disk artifact directories for the three layers.
type LayersConfig struct {
	BronzeDir string `yaml:"bronzeDir"`
	SilverDir string `yaml:"silverDir"`
	GoldDir   string `yaml:"goldDir"`
}

// StorageConfig describes the relational store holding the silver and gold
// layers.
type StorageConfig struct {
	Kind string `yaml:"kind"` // "postgres", "sqlite" or "mssql"
	DSN  string `yaml:"dsn"`
}

// MetricsConfig selects the metrics backend.
type MetricsConfig struct {
	Backend        string `yaml:"backend"` // "none" or "pushgateway"
	PushgatewayURL string `yaml:"pushgatewayUrl"`
}

// LoggingConfig selects the log encoder mode.
type LoggingConfig struct {
	Mode string `yaml:"mode"` // "development" or "production"
}

// Duration wraps time.Duration so YAML values like "30s" decode naturally.
type Duration time.Duration

// UnmarshalYAML parses Go duration syntax. A bare integer is rejected so
// configs cannot silently mean nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads the YAML file at path, applies environment fallbacks through
// getenv, and fills defaults. getenv is injected so tests stay hermetic;
// production callers pass os.Getenv.
func Load(path string, getenv func(string) string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg.applyEnv(getenv)
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv fills deploy-varying fields from the environment when the YAML
// left them empty. Explicit YAML values always win.
func (c *Config) applyEnv(getenv func(string) string) {
	if c.Storage.DSN == "" {
		c.Storage.DSN = getenv(envDatabaseDSN)
	}
	if c.Metrics.PushgatewayURL == "" {
		c.Metrics.PushgatewayURL = getenv(envPushgateway)
	}
}

func (c *Config) applyDefaults() {
	if c.Job == "" {
		c.Job = "telco_churn"
	}
	if c.Source.Kind == "" {
		c.Source.Kind = "file"
	}
	if c.Source.Timeout <= 0 {
		c.Source.Timeout = Duration(30 * time.Second)
	}
	if c.Source.MaxRetries == 0 {
		c.Source.MaxRetries = 3
	}
	if c.Layers.BronzeDir == "" {
		c.Layers.BronzeDir = "data/bronze"
	}
	if c.Layers.SilverDir == "" {
		c.Layers.SilverDir = "data/silver"
	}
	if c.Layers.GoldDir == "" {
		c.Layers.GoldDir = "data/gold"
	}
	if c.Storage.Kind == "" {
		c.Storage.Kind = "postgres"
	}
	if c.Metrics.Backend == "" {
		c.Metrics.Backend = "none"
	}
	if c.Logging.Mode == "" {
		c.Logging.Mode = "development"
	}
}
