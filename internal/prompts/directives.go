package prompts

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_directives.yaml
var defaultDirectivesYAML []byte

// Directives are the static rules listed in every system prompt.
type Directives struct {
	Resources     []string `yaml:"resources"`
	Constraints   []string `yaml:"constraints"`
	BestPractices []string `yaml:"best_practices"`
}

// DefaultDirectives returns the built-in directives.
func DefaultDirectives() Directives {
	d, err := ParseDirectives(defaultDirectivesYAML)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in directives: %v", err))
	}
	return d
}

// ParseDirectives decodes directives from YAML.
func ParseDirectives(data []byte) (Directives, error) {
	var d Directives
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Directives{}, fmt.Errorf("failed to parse directives: %w", err)
	}
	return d, nil
}

// LoadDirectives reads directives from a YAML file. An empty path yields
// the built-in defaults.
func LoadDirectives(path string) (Directives, error) {
	if path == "" {
		return DefaultDirectives(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Directives{}, fmt.Errorf("failed to read prompt settings: %w", err)
	}
	return ParseDirectives(data)
}

// Merge returns d with other's entries appended.
func (d Directives) Merge(other Directives) Directives {
	return Directives{
		Resources:     append(append([]string(nil), d.Resources...), other.Resources...),
		Constraints:   append(append([]string(nil), d.Constraints...), other.Constraints...),
		BestPractices: append(append([]string(nil), d.BestPractices...), other.BestPractices...),
	}
}
