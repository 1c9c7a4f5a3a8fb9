// Package config loads netplanner settings from a YAML file, the environment
// and defaults, in that order of priority from lowest to highest: defaults,
// file, environment. CLI flags are applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/joshharrison/netplanner/internal/engine"
	"github.com/joshharrison/netplanner/internal/pert"
)

// Config is the complete netplanner configuration.
type Config struct {
	Engine EngineConfig `yaml:"engine" json:"engine"`
	Output OutputConfig `yaml:"output" json:"output"`
	Server ServerConfig `yaml:"server" json:"server"`
	Claude ClaudeConfig `yaml:"claude" json:"claude"`
	Log    LogConfig    `yaml:"log" json:"log"`
}

// EngineConfig tunes schedule computation.
type EngineConfig struct {
	Epsilon  float64 `yaml:"epsilon" json:"epsilon" validate:"gt=0,lt=1"`
	Policy   string  `yaml:"policy" json:"policy" validate:"oneof=normalize strict"`
	MaxPaths int     `yaml:"max_paths" json:"max_paths" validate:"min=-1"` // -1 disables the cap
}

// Options converts the engine settings for engine.Compute.
func (c EngineConfig) Options() engine.Options {
	return engine.Options{
		Epsilon:  c.Epsilon,
		Policy:   pert.Policy(c.Policy),
		MaxPaths: c.MaxPaths,
	}
}

// OutputConfig controls how results are rendered.
type OutputConfig struct {
	TimeUnit   string  `yaml:"time_unit" json:"time_unit" validate:"required"`
	Precision  int     `yaml:"precision" json:"precision" validate:"gte=0,lte=9"`
	Confidence float64 `yaml:"confidence" json:"confidence" validate:"gt=0,lt=1"`
	GanttWidth int     `yaml:"gantt_width" json:"gantt_width" validate:"gte=10,lte=400"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `yaml:"addr" json:"addr" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" validate:"gt=0"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes" validate:"gt=0"`
}

// ClaudeConfig configures predecessor inference.
type ClaudeConfig struct {
	Model     string `yaml:"model" json:"model" validate:"required"`
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env" validate:"required"`
}

// LogConfig configures the diagnostic logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"oneof=text json"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			Epsilon:  1e-9,
			Policy:   "normalize",
			MaxPaths: 1000,
		},
		Output: OutputConfig{
			TimeUnit:   "days",
			Precision:  2,
			Confidence: 0.95,
			GanttWidth: 60,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 4 << 20,
		},
		Claude: ClaudeConfig{
			Model:     "claude-sonnet-4-5-20250929",
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

var validate = validator.New()

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty) and NETPLANNER_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("NETPLANNER_POLICY"); v != "" {
		cfg.Engine.Policy = v
	}
	if v := getenv("NETPLANNER_MAX_PATHS"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NETPLANNER_MAX_PATHS: %q is not an integer", v)
		}
		cfg.Engine.MaxPaths = i
	}
	if v := getenv("NETPLANNER_TIME_UNIT"); v != "" {
		cfg.Output.TimeUnit = v
	}
	if v := getenv("NETPLANNER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := getenv("NETPLANNER_CLAUDE_MODEL"); v != "" {
		cfg.Claude.Model = v
	}
	if v := getenv("NETPLANNER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("NETPLANNER_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}
