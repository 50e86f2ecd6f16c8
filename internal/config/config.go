// Package config holds piv's settings: defaults, the YAML config file and
// PIV_* environment overrides, applied in that order.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL matches the insights backend's development address.
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second
)

// DefaultPresets are the quick picks offered on the search screen.
var DefaultPresets = []string{"apple", "google", "microsoft", "netflix"}

// APIConfig locates the insights service.
type APIConfig struct {
	BaseURL string `yaml:"base_url" env:"PIV_API_URL"`
	// Timeout bounds each request end to end; zero disables it.
	Timeout time.Duration `yaml:"timeout" env:"PIV_TIMEOUT"`
}

// LoggingConfig controls the structured log. The TUI owns the terminal, so
// logs only reach a file unless running in --json mode.
type LoggingConfig struct {
	Level string `yaml:"level" env:"PIV_LOG_LEVEL"`
	File  string `yaml:"file" env:"PIV_LOG_FILE"`
}

// Config is the full piv configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Logging LoggingConfig `yaml:"logging"`
	Presets []string      `yaml:"presets" env:"PIV_PRESETS" envSeparator:","`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
		Logging: LoggingConfig{Level: "info"},
		Presets: append([]string(nil), DefaultPresets...),
	}
}

// Decode overlays the YAML document in r onto cfg. Keys missing from the
// document keep their current values.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// LoadFile returns the defaults overlaid with the file at path and then
// with the environment.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := Decode(f, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overlays any PIV_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url %q: must be an absolute http(s) URL", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must be >= 0, got %s", c.API.Timeout)
	}
	for i, p := range c.Presets {
		if strings.TrimSpace(p) == "" || strings.ContainsAny(p, " \t/") {
			return fmt.Errorf("presets[%d] %q: must be a single page id", i, p)
		}
	}
	return nil
}
