// Package datasource discovers piv's config file and watches it for edits.
package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/daviddao/piv/internal/config"
)

const (
	// EnvConfig names an explicit config file.
	EnvConfig = "PIV_CONFIG"

	defaultConfig = ".piv/config.yaml"
)

// ErrNoConfig is returned by Discover when no config file exists.
var ErrNoConfig = errors.New("no piv config found")

// Discover finds the config file path.
// Priority: PIV_CONFIG env var > .piv/config.yaml in CWD > walk up parents.
func Discover() (string, error) {
	if env := os.Getenv(EnvConfig); env != "" {
		if _, err := os.Stat(env); err == nil {
			return env, nil
		}
		return "", fmt.Errorf("%s=%q: %w", EnvConfig, env, os.ErrNotExist)
	}

	if _, err := os.Stat(defaultConfig); err == nil {
		abs, err := filepath.Abs(defaultConfig)
		if err != nil {
			return "", fmt.Errorf("resolve absolute path for %s: %w", defaultConfig, err)
		}
		return abs, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, defaultConfig)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w (looked for %s)", ErrNoConfig, defaultConfig)
}

// Open loads the configuration. An explicit path wins over discovery; when
// nothing is found the defaults (plus environment) are used and the
// returned path is empty.
func Open(explicit string) (config.Config, string, error) {
	path := explicit
	if path == "" {
		found, err := Discover()
		switch {
		case errors.Is(err, ErrNoConfig):
			cfg, err := config.LoadFile("")
			return cfg, "", err
		case err != nil:
			return config.Config{}, "", err
		}
		path = found
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return config.Config{}, "", err
	}
	return cfg, path, nil
}
