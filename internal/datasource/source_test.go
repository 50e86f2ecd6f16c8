package datasource

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// chdir changes the working directory to dir for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("Chdir restore: %v", err)
		}
	})
}

// writeConfig creates dir/.piv/config.yaml with body and returns its path.
func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	cfgDir := filepath.Join(dir, ".piv")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	path := filepath.Join(cfgDir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDiscoverFromEnvVar(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "presets: [acme]\n")
	t.Setenv(EnvConfig, path)

	got, err := Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got != path {
		t.Errorf("Discover() = %q, want %q", got, path)
	}
}

func TestDiscoverEnvVarMissing(t *testing.T) {
	t.Setenv(EnvConfig, "/nonexistent/path/config.yaml")

	_, err := Discover()
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Discover() error = %v, want os.ErrNotExist", err)
	}
}

func TestDiscoverFromCWD(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "")
	t.Setenv(EnvConfig, "")
	chdir(t, dir)

	path, err := Discover()
	if err != nil {
		t.Fatalf("Discover from CWD: %v", err)
	}
	if filepath.Base(filepath.Dir(path)) != ".piv" {
		t.Errorf("expected path in .piv/, got %q", path)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("expected absolute path, got %q", path)
	}
}

func TestDiscoverFromParentDir(t *testing.T) {
	dir := t.TempDir()
	want := writeConfig(t, dir, "")
	child := filepath.Join(dir, "sub", "deep")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatalf("MkdirAll child: %v", err)
	}
	t.Setenv(EnvConfig, "")
	chdir(t, child)

	path, err := Discover()
	if err != nil {
		t.Fatalf("Discover from parent: %v", err)
	}
	// Resolve symlinks for comparison (macOS /var -> /private/var).
	resolvedPath, _ := filepath.EvalSymlinks(path)
	resolvedWant, _ := filepath.EvalSymlinks(want)
	if resolvedPath != resolvedWant {
		t.Errorf("Discover() = %q, want %q", path, want)
	}
}

func TestDiscoverNoConfig(t *testing.T) {
	t.Setenv(EnvConfig, "")
	chdir(t, t.TempDir())

	_, err := Discover()
	if !errors.Is(err, ErrNoConfig) {
		t.Errorf("Discover() error = %v, want ErrNoConfig", err)
	}
}

func TestOpenFallsBackToDefaults(t *testing.T) {
	t.Setenv(EnvConfig, "")
	chdir(t, t.TempDir())

	cfg, path, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if path != "" {
		t.Errorf("Open path = %q, want empty", path)
	}
	if len(cfg.Presets) == 0 {
		t.Error("expected default presets")
	}
}

func TestOpenExplicitPath(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "api:\n  base_url: https://insights.example.com\n")

	cfg, got, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got != path {
		t.Errorf("Open path = %q, want %q", got, path)
	}
	if cfg.API.BaseURL != "https://insights.example.com" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
}

func TestOpenInvalidConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "api:\n  base_url: not a url\n")

	if _, _, err := Open(path); err == nil {
		t.Error("Open should fail for an invalid base_url")
	}
}
