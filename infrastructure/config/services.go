package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadPresetSet loads named trace presets from config/presets.yaml.
func LoadPresetSet() (*PresetSet, error) {
	return LoadPresetSetFromPath(filepath.Join("config", "presets.yaml"))
}

// LoadPresetSetFromPath loads named trace presets from a specific path.
func LoadPresetSetFromPath(path string) (*PresetSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset set: %w", err)
	}

	var set PresetSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse preset set: %w", err)
	}

	for name, preset := range set.Presets {
		if preset.DSN == "" {
			return nil, fmt.Errorf("preset %s: dsn is required", name)
		}
	}

	return &set, nil
}

// LoadPresetSetOrEmpty loads the preset set, returning an empty one
// (rather than an error) if presets.yaml doesn't exist -- presets are
// a convenience, not a requirement, so a caller with no config/
// directory at all should still be able to drive the CLI with plain
// flags.
func LoadPresetSetOrEmpty() *PresetSet {
	set, err := LoadPresetSet()
	if err != nil {
		return &PresetSet{Presets: map[string]*TracePreset{}}
	}
	return set
}
