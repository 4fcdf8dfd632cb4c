package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with an invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("SCORELINE_CONFIG")
	defer os.Setenv("SCORELINE_CONFIG", originalEnv)

	os.Setenv("SCORELINE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidConfigContent verifies run rejects a config that fails
// validation.
func TestRun_InvalidConfigContent(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Device references a league that is not configured.
	content := `
devices:
  - host: "wled-den.local"
    name: "Den"
    start: 0
    end: 300
    watch_list: ["nfl:GB"]
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	originalEnv := os.Getenv("SCORELINE_CONFIG")
	defer os.Setenv("SCORELINE_CONFIG", originalEnv)
	os.Setenv("SCORELINE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail when a watch list references an unknown league")
	}
}

func TestGetConfigPath(t *testing.T) {
	originalEnv := os.Getenv("SCORELINE_CONFIG")
	defer os.Setenv("SCORELINE_CONFIG", originalEnv)

	os.Setenv("SCORELINE_CONFIG", "/tmp/custom.yaml")
	if got := getConfigPath(); got != "/tmp/custom.yaml" {
		t.Errorf("getConfigPath() = %q, want /tmp/custom.yaml", got)
	}

	os.Unsetenv("SCORELINE_CONFIG")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}
}
