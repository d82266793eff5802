// Package config loads thinker settings from THINKER_HOME/config.yaml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/kokistudios/thinker/internal/process"
	"github.com/kokistudios/thinker/internal/thought"
)

const fileName = "config.yaml"

// ServerConfig holds transport settings.
type ServerConfig struct {
	Transport       string        `yaml:"transport"`
	HTTPAddr        string        `yaml:"http_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds log and terminal output settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	ThoughtLog bool   `yaml:"thought_log"`
	NoColor    bool   `yaml:"no_color"`
}

type ThoughtConfig struct {
	StrictSequence     bool `yaml:"strict_sequence"`
	AllowTotalDecrease bool `yaml:"allow_total_decrease"`
}

type FiveWhyConfig struct {
	DefaultMaxDepth int `yaml:"default_max_depth"`
	MaxDepthLimit   int `yaml:"max_depth_limit"`
}

type ScamperConfig struct {
	AllowComprehensiveAfterPartial bool `yaml:"allow_comprehensive_after_partial"`
}

// Config holds thinker configuration.
type Config struct {
	Version string        `yaml:"version"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Thought ThoughtConfig `yaml:"thought"`
	FiveWhy FiveWhyConfig `yaml:"five_why"`
	Scamper ScamperConfig `yaml:"scamper"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Version: "1",
		Server: ServerConfig{
			Transport:       "stdio",
			HTTPAddr:        "127.0.0.1:8787",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			ThoughtLog: true,
		},
		Thought: ThoughtConfig{
			AllowTotalDecrease: true,
		},
		FiveWhy: FiveWhyConfig{
			DefaultMaxDepth: 5,
			MaxDepthLimit:   10,
		},
	}
}

// Home returns the THINKER_HOME path, respecting the THINKER_HOME env var.
func Home() string {
	if h := os.Getenv("THINKER_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".thinker")
	}
	return filepath.Join(home, ".thinker")
}

// Path returns the config file location inside home.
func Path(home string) string {
	return filepath.Join(home, fileName)
}

// Init creates home and writes a default config.yaml.
func Init(home string, force bool) error {
	if _, err := os.Stat(Path(home)); err == nil && !force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", Path(home))
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", home, err)
	}
	cfg := DefaultConfig()
	return cfg.Save(home)
}

// Load reads config.yaml from home. A missing file yields the defaults;
// missing fields are filled from defaults.
func Load(home string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(Path(home))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("cannot read config at %s: %w", Path(home), err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", fileName, err)
	}
	return cfg, nil
}

// Resolve loads home, applies environment overrides and validates the result.
func Resolve(home string) (Config, error) {
	cfg, err := Load(home)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Save writes the config to home/config.yaml.
func (c *Config) Save(home string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", home, err)
	}
	if err := os.WriteFile(Path(home), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

var envKeys = map[string]string{
	"THINKER_TRANSPORT":           "server.transport",
	"THINKER_HTTP_ADDR":           "server.http_addr",
	"THINKER_LOG_LEVEL":           "logging.level",
	"THINKER_WHY_MAX_DEPTH":       "five_why.default_max_depth",
	"THINKER_WHY_MAX_DEPTH_LIMIT": "five_why.max_depth_limit",
	"THINKER_STRICT_SEQUENCE":     "thought.strict_sequence",
}

// ApplyEnv overlays environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	for env, key := range envKeys {
		v := getenv(env)
		if v == "" {
			continue
		}
		if err := c.SetValue(key, v); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}
	if v := getenv("DISABLE_THOUGHT_LOGGING"); v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DISABLE_THOUGHT_LOGGING: %q is not a boolean", v)
		}
		c.Logging.ThoughtLog = !disabled
	}
	return nil
}

// Keys lists the dot-path keys accepted by SetValue.
func Keys() []string {
	return []string{
		"server.transport",
		"server.http_addr",
		"server.shutdown_timeout",
		"logging.level",
		"logging.thought_log",
		"logging.no_color",
		"thought.strict_sequence",
		"thought.allow_total_decrease",
		"five_why.default_max_depth",
		"five_why.max_depth_limit",
		"scamper.allow_comprehensive_after_partial",
	}
}

// SetValue sets a config value by dot-path key (e.g. "logging.level").
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "server.transport":
		c.Server.Transport = value
	case "server.http_addr":
		c.Server.HTTPAddr = value
	case "server.shutdown_timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("server.shutdown_timeout must be a positive duration such as 10s")
		}
		c.Server.ShutdownTimeout = d
	case "logging.level":
		c.Logging.Level = value
	case "logging.thought_log":
		return setBool(&c.Logging.ThoughtLog, key, value)
	case "logging.no_color":
		return setBool(&c.Logging.NoColor, key, value)
	case "thought.strict_sequence":
		return setBool(&c.Thought.StrictSequence, key, value)
	case "thought.allow_total_decrease":
		return setBool(&c.Thought.AllowTotalDecrease, key, value)
	case "five_why.default_max_depth":
		return setPositive(&c.FiveWhy.DefaultMaxDepth, key, value)
	case "five_why.max_depth_limit":
		return setPositive(&c.FiveWhy.MaxDepthLimit, key, value)
	case "scamper.allow_comprehensive_after_partial":
		return setBool(&c.Scamper.AllowComprehensiveAfterPartial, key, value)
	default:
		return fmt.Errorf("unknown config key: %s\nValid keys: %s", key, strings.Join(Keys(), ", "))
	}
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be true or false", key)
	}
	*dst = b
	return nil
}

func setPositive(dst *int, key, value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return fmt.Errorf("%s must be a positive integer", key)
	}
	*dst = n
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.Server.Transport {
	case "stdio", "http":
	default:
		errs = append(errs, fmt.Errorf("server.transport must be stdio or http, got %q", c.Server.Transport))
	}
	if c.Server.Transport == "http" && c.Server.HTTPAddr == "" {
		errs = append(errs, errors.New("server.http_addr is required for the http transport"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.FiveWhy.DefaultMaxDepth < 1 {
		errs = append(errs, errors.New("five_why.default_max_depth must be a positive integer"))
	}
	if c.FiveWhy.MaxDepthLimit < c.FiveWhy.DefaultMaxDepth {
		errs = append(errs, fmt.Errorf("five_why.max_depth_limit (%d) must be at least five_why.default_max_depth (%d)",
			c.FiveWhy.MaxDepthLimit, c.FiveWhy.DefaultMaxDepth))
	}
	return errors.Join(errs...)
}

func (c *Config) ThoughtOptions() thought.Options {
	return thought.Options{
		StrictSequence:     c.Thought.StrictSequence,
		AllowTotalDecrease: c.Thought.AllowTotalDecrease,
	}
}

func (c *Config) ProcessOptions() process.Options {
	return process.Options{
		FiveWhy: process.FiveWhyOptions{
			DefaultMaxDepth: c.FiveWhy.DefaultMaxDepth,
			MaxDepthLimit:   c.FiveWhy.MaxDepthLimit,
		},
		Scamper: process.ScamperOptions{
			AllowComprehensiveAfterPartial: c.Scamper.AllowComprehensiveAfterPartial,
		},
	}
}
