package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftahirops/sensorguard/engine"
	"github.com/ftahirops/sensorguard/model"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file.
const (
	EnvModelDir    = "SENSORGUARD_MODEL_DIR"
	EnvWebAddr     = "SENSORGUARD_WEB_ADDR"
	EnvMetricsAddr = "SENSORGUARD_METRICS_ADDR"
)

// Config holds user-configurable defaults and integrations.
type Config struct {
	ModelDir   string               `json:"model_dir" yaml:"model_dir"`
	Artifacts  engine.ArtifactNames `json:"artifacts" yaml:"artifacts"`
	WebAddr    string               `json:"web_addr" yaml:"web_addr"`
	Prometheus PrometheusConfig     `json:"prometheus" yaml:"prometheus"`
	// Defaults overrides the built-in form values, keyed by feature column.
	Defaults map[string]float64 `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

type PrometheusConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

// Default returns a config with sensible defaults.
func Default() Config {
	return Config{
		ModelDir:  ".",
		Artifacts: engine.DefaultArtifactNames(),
		WebAddr:   "127.0.0.1:8501",
		Prometheus: PrometheusConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9109",
		},
	}
}

// Path returns ~/.config/sensorguard/config.json (or XDG_CONFIG_HOME).
// Returns empty string if home directory cannot be determined.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "sensorguard", "config.json")
}

// Load loads config from the default path; returns defaults on error.
// writable is false when there is no default path or the existing file
// failed to parse, so saving must not replace it.
func Load() (cfg Config, writable bool) {
	p := Path()
	if p == "" {
		return Default(), false
	}
	cfg, err := LoadFile(p)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("sensorguard: warning: config parse error: %v", err)
			return Default(), false
		}
		return Default(), true
	}
	return cfg, true
}

// LoadFile reads a JSON or YAML config file over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.ModelDir == "" {
		c.ModelDir = def.ModelDir
	}
	if c.Artifacts.Pipeline == "" {
		c.Artifacts.Pipeline = def.Artifacts.Pipeline
	}
	if c.Artifacts.Detector == "" {
		c.Artifacts.Detector = def.Artifacts.Detector
	}
	if c.Artifacts.Scaler == "" {
		c.Artifacts.Scaler = def.Artifacts.Scaler
	}
	if c.WebAddr == "" {
		c.WebAddr = def.WebAddr
	}
	if c.Prometheus.Addr == "" {
		c.Prometheus.Addr = def.Prometheus.Addr
	}
}

// Validate rejects form defaults for unknown features, non-finite values,
// and fractional values for whole-number features.
func (c Config) Validate() error {
	for col, v := range c.Defaults {
		idx := model.FeatureIndex(col)
		if idx < 0 {
			return fmt.Errorf("defaults: unknown feature %q", col)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("defaults: %s must be finite, got %v", col, v)
		}
		if model.Features[idx].Integer && v != math.Trunc(v) {
			return fmt.Errorf("defaults: %s must be a whole number, got %v", col, v)
		}
	}
	return nil
}

// ApplyEnv loads a .env file from the working directory when present and
// applies environment overrides.
func (c *Config) ApplyEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("sensorguard: warning: .env: %v", err)
	}
	if v, ok := os.LookupEnv(EnvModelDir); ok && v != "" {
		c.ModelDir = v
	}
	if v, ok := os.LookupEnv(EnvWebAddr); ok && v != "" {
		c.WebAddr = v
	}
	if v, ok := os.LookupEnv(EnvMetricsAddr); ok && v != "" {
		c.Prometheus.Enabled = true
		c.Prometheus.Addr = v
	}
}

// DefaultReading returns the form values, built-in defaults overridden by
// the config.
func (c Config) DefaultReading() model.Reading {
	r := model.DefaultReading()
	for col, v := range c.Defaults {
		_ = r.Set(col, v)
	}
	return r
}

// Save writes the config to the default path as JSON.
func Save(cfg Config) error {
	path := Path()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveFile(cfg, path)
}

// SaveFile writes the config to path, as YAML for .yaml/.yml and JSON
// otherwise.
func SaveFile(cfg Config, path string) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
