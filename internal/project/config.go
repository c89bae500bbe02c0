// Package project reads per-workspace overrides kept in the workspace's
// .autoloop directory.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// Dir is the directory name for per-workspace configuration
	Dir = ".autoloop"
	// ConfigFile is the name of the project configuration file
	ConfigFile = "project.json"
	// RulesFile is the name of the custom rules file
	RulesFile = "rules"
)

// ProjectConfig holds per-workspace settings layered over the user config.
type ProjectConfig struct {
	Goals            []string `json:"goals,omitempty"`             // appended to the AI profile's goals
	DisabledCommands []string `json:"disabled_commands,omitempty"` // removed from the command registry
	NotesFile        string   `json:"notes_file,omitempty"`        // used when the user config sets none
}

// configPath returns the full path to the project config file.
func configPath(workspace string) string {
	return filepath.Join(workspace, Dir, ConfigFile)
}

// rulesPath returns the full path to the project rules file.
func rulesPath(workspace string) string {
	return filepath.Join(workspace, Dir, RulesFile)
}

// ConfigExists checks if a project configuration file exists.
func ConfigExists(workspace string) bool {
	_, err := os.Stat(configPath(workspace))
	return !os.IsNotExist(err)
}

// LoadConfig reads the project configuration from disk.
// Returns nil and no error if the config file does not exist.
func LoadConfig(workspace string) (*ProjectConfig, error) {
	path := configPath(workspace)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project config: %w", err)
	}

	var cfg ProjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse project config: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes the project configuration to disk.
// Creates the .autoloop directory if it doesn't exist.
func SaveConfig(workspace string, cfg *ProjectConfig) error {
	if err := os.MkdirAll(filepath.Join(workspace, Dir), 0755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", Dir, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project config: %w", err)
	}

	if err := os.WriteFile(configPath(workspace), data, 0644); err != nil {
		return fmt.Errorf("failed to write project config: %w", err)
	}

	return nil
}

// LoadRules reads custom rules from the .autoloop/rules file, one per line.
// Blank lines and lines starting with '#' are skipped. Returns nil and no
// error if the file does not exist.
func LoadRules(workspace string) ([]string, error) {
	path := rulesPath(workspace)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	return rules, nil
}
