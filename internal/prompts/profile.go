package prompts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AIProfile is the agent's persona and mission, usually read from ai_settings.yaml.
type AIProfile struct {
	Name      string   `yaml:"ai_name"`
	Role      string   `yaml:"ai_role"`
	Goals     []string `yaml:"ai_goals"`
	APIBudget float64  `yaml:"api_budget"`
}

// DefaultProfile is used when no settings file exists.
func DefaultProfile() AIProfile {
	return AIProfile{
		Name: "Autoloop",
		Role: "an autonomous agent that completes tasks using the commands available to it.",
	}
}

// LoadProfile reads an AIProfile from a YAML file.
func LoadProfile(path string) (AIProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AIProfile{}, fmt.Errorf("failed to read ai settings: %w", err)
	}
	var p AIProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return AIProfile{}, fmt.Errorf("failed to parse ai settings %s: %w", path, err)
	}
	if p.Name == "" {
		return AIProfile{}, fmt.Errorf("ai settings %s: ai_name is required", path)
	}
	return p, nil
}

// Save writes the profile as YAML.
func (p AIProfile) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal ai settings: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
