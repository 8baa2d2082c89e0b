package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPresetSetFromPath(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "presets.yaml")

		configContent := `
presets:
  nightly:
    dsn: "postgres://ci-db/nightly"
    mem_budget: "512MiB"
    peak_flops: 23000000000000
    description: "Nightly CI regression run"
`
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		set, err := LoadPresetSetFromPath(configPath)
		if err != nil {
			t.Fatalf("LoadPresetSetFromPath() error = %v", err)
		}
		if set == nil {
			t.Fatal("LoadPresetSetFromPath() returned nil")
		}

		p := set.Get("nightly")
		if p == nil {
			t.Fatal("nightly preset not found")
		}
		if p.DSN != "postgres://ci-db/nightly" {
			t.Errorf("dsn = %q, want postgres://ci-db/nightly", p.DSN)
		}
		if p.MemBudget != "512MiB" {
			t.Errorf("mem_budget = %q, want 512MiB", p.MemBudget)
		}
	})

	t.Run("missing dsn", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "presets.yaml")

		configContent := `
presets:
  broken:
    description: "No dsn set"
`
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadPresetSetFromPath(configPath)
		if err == nil {
			t.Error("expected error for missing dsn")
		}
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := LoadPresetSetFromPath("/nonexistent/path/presets.yaml")
		if err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "presets.yaml")

		if err := os.WriteFile(configPath, []byte("invalid: yaml: content:"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadPresetSetFromPath(configPath)
		if err == nil {
			t.Error("expected error for invalid yaml")
		}
	})
}

func TestLoadPresetSetOrEmpty(t *testing.T) {
	// config/presets.yaml doesn't exist relative to the test's working
	// directory, so this should fall back to an empty, non-nil set.
	set := LoadPresetSetOrEmpty()
	if set == nil {
		t.Fatal("LoadPresetSetOrEmpty() returned nil")
	}
	if len(set.Names()) != 0 {
		t.Error("expected empty preset set")
	}
}
