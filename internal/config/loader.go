package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config, defaults.
// Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*TrackerConfig, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: ~/.studytracker/config.json
// Project: .studytracker/config.json (relative to cwd)
func LoadDefault() (*TrackerConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	globalPath := filepath.Join(homeDir, ".studytracker", "config.json")
	projectPath := filepath.Join(".studytracker", "config.json")

	return Load(globalPath, projectPath)
}

// mergeConfigFile overlays the fields present in a JSON file onto base.
// Missing files are silently skipped. Malformed JSON returns an error and
// leaves base untouched.
func mergeConfigFile(base *TrackerConfig, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	// Decode onto a copy so a half-applied file never leaks into base.
	merged := *base
	theme := base.Theme
	merged.Theme = nil
	if err := json.Unmarshal(data, &merged); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	// Theme entries merge key by key instead of replacing the map.
	if theme == nil {
		theme = make(map[string]string)
	}
	for key, colour := range merged.Theme {
		theme[key] = colour
	}
	merged.Theme = theme

	*base = merged
	return nil
}
