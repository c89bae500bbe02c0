package prompts

import (
	"fmt"
	"sync"
)

// PromptRegistry manages versioned prompt templates.
type PromptRegistry struct {
	mu      sync.RWMutex
	prompts map[string]map[PromptVersion]*Prompt // ID -> Version -> Prompt
}

var defaultRegistry *PromptRegistry
var defaultRegistryOnce sync.Once

// DefaultRegistry returns the registry holding the built-in templates.
func DefaultRegistry() *PromptRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewPromptRegistry()
	})
	return defaultRegistry
}

// NewPromptRegistry creates an empty prompt registry.
func NewPromptRegistry() *PromptRegistry {
	return &PromptRegistry{
		prompts: make(map[string]map[PromptVersion]*Prompt),
	}
}

// Register registers a prompt in the registry.
func (r *PromptRegistry) Register(p *Prompt) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.prompts[p.ID] == nil {
		r.prompts[p.ID] = make(map[PromptVersion]*Prompt)
	}
	r.prompts[p.ID][p.Version] = p
}

// Get retrieves a specific version of a prompt.
func (r *PromptRegistry) Get(id string, version PromptVersion) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}

	prompt, ok := versions[version]
	if !ok {
		return nil, fmt.Errorf("prompt %s version %s not found", id, version)
	}

	return prompt, nil
}

// GetLatest retrieves the latest (non-deprecated) version of a prompt.
// If all versions are deprecated, returns the most recent version.
func (r *PromptRegistry) GetLatest(id string) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[id]
	if !ok || len(versions) == 0 {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}

	var latest, latestAny *Prompt
	for version, prompt := range versions {
		if latestAny == nil || version > latestAny.Version {
			latestAny = prompt
		}
		if !prompt.Deprecated && (latest == nil || version > latest.Version) {
			latest = prompt
		}
	}
	if latest == nil {
		return latestAny, nil
	}
	return latest, nil
}

// Render substitutes vars into the latest version of the template id.
func (r *PromptRegistry) Render(id string, vars map[string]string) (string, error) {
	p, err := r.GetLatest(id)
	if err != nil {
		return "", err
	}
	b := NewPromptBuilder(p)
	for k, v := range vars {
		b.SetVariable(k, v)
	}
	return b.Build()
}
