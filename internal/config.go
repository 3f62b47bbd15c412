package internal

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ContextConfig struct {
	MarginX float64 `yaml:"margin_x"`
	MarginY float64 `yaml:"margin_y"`
}

type LogConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

type Config struct {
	Threshold     float64           `yaml:"threshold"`
	DefaultColor  string            `yaml:"default_color"`
	Opacity       float64           `yaml:"opacity"`
	CaseSensitive bool              `yaml:"case_sensitive"`
	Workers       int               `yaml:"workers"`
	Context       ContextConfig     `yaml:"context"`
	Log           LogConfig         `yaml:"log"`
	Metrics       MetricsConfig     `yaml:"metrics,omitempty"`
	Colors        map[string]string `yaml:"colors,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Threshold:    DefaultThreshold,
		DefaultColor: "yellow",
		Opacity:      0.5,
		Workers:      4,
		Context: ContextConfig{
			MarginX: 20,
			MarginY: 10,
		},
		Log: LogConfig{
			Env:   "local",
			Level: "warn",
		},
		Colors: make(map[string]string),
	}
}

// LoadConfig reads the scope's config.yaml on top of the defaults. A missing
// file yields the defaults.
func LoadConfig(scope Scope) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(scope.ConfigPath())
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Colors == nil {
		cfg.Colors = make(map[string]string)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", scope.ConfigPath(), err)
	}

	return cfg, nil
}

func SaveConfig(scope Scope, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(scope.Dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(scope.ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func (c *Config) Validate() error {
	if err := ValidateThreshold(c.Threshold); err != nil {
		return err
	}
	if c.Opacity < 0 || c.Opacity > 1 {
		return fmt.Errorf("opacity %v outside [0,1]", c.Opacity)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Context.MarginX < 0 || c.Context.MarginY < 0 {
		return fmt.Errorf("context margins must not be negative")
	}
	palette, err := c.Palette()
	if err != nil {
		return err
	}
	if c.DefaultColor != "" {
		if _, err := palette.Resolve(c.DefaultColor); err != nil {
			return fmt.Errorf("default color: %w", err)
		}
	}
	return nil
}

// Palette merges user colors over the built-in presets.
func (c *Config) Palette() (Palette, error) {
	p := DefaultPalette()
	for name, hex := range c.Colors {
		col, err := ParseHex(hex)
		if err != nil {
			return nil, fmt.Errorf("color %q: %w", name, err)
		}
		p[strings.ToLower(name)] = col
	}
	return p, nil
}

// Settings are the values the services read from a Config.
type Settings struct {
	Threshold      float64
	Opacity        float64
	CaseSensitive  bool
	ContextMarginX float64
	ContextMarginY float64
}

func DefaultSettings() Settings {
	return DefaultConfig().Settings()
}

func (c *Config) Settings() Settings {
	return Settings{
		Threshold:      c.Threshold,
		Opacity:        c.Opacity,
		CaseSensitive:  c.CaseSensitive,
		ContextMarginX: c.Context.MarginX,
		ContextMarginY: c.Context.MarginY,
	}
}

func (s Settings) SearchOptions() SearchOptions {
	return SearchOptions{CaseSensitive: s.CaseSensitive}
}

// ConfigKeys lists the keys accepted by Set.
func ConfigKeys() []string {
	keys := []string{
		"threshold", "default_color", "opacity", "case_sensitive", "workers",
		"context.margin_x", "context.margin_y", "log.env", "log.level",
		"metrics.textfile",
	}
	sort.Strings(keys)
	return keys
}

// Set assigns a single value addressed by its yaml path. Keys of the form
// colors.<name> add or replace a named color.
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "threshold":
		c.Threshold, err = strconv.ParseFloat(value, 64)
	case "default_color":
		c.DefaultColor = value
	case "opacity":
		c.Opacity, err = strconv.ParseFloat(value, 64)
	case "case_sensitive":
		c.CaseSensitive, err = strconv.ParseBool(value)
	case "workers":
		c.Workers, err = strconv.Atoi(value)
	case "context.margin_x":
		c.Context.MarginX, err = strconv.ParseFloat(value, 64)
	case "context.margin_y":
		c.Context.MarginY, err = strconv.ParseFloat(value, 64)
	case "log.env":
		c.Log.Env = value
	case "log.level":
		c.Log.Level = value
	case "metrics.textfile":
		c.Metrics.Textfile = value
	default:
		name, ok := strings.CutPrefix(key, "colors.")
		if !ok || name == "" {
			return fmt.Errorf("unknown config key %q", key)
		}
		if _, err := ParseHex(value); err != nil {
			return err
		}
		if c.Colors == nil {
			c.Colors = make(map[string]string)
		}
		c.Colors[strings.ToLower(name)] = value
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	return c.Validate()
}
