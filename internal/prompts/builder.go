package prompts

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{([a-zA-Z0-9_]+)\}\}`)

// PromptBuilder composes a prompt from a template, extra fragments and
// {{key}} variables.
type PromptBuilder struct {
	fragments []string
	variables map[string]string
}

// NewPromptBuilder starts a builder from a template.
func NewPromptBuilder(base *Prompt) *PromptBuilder {
	b := &PromptBuilder{variables: make(map[string]string)}
	if base != nil {
		b.fragments = append(b.fragments, base.Content)
	}
	return b
}

// AddFragment appends a fragment to the prompt.
func (b *PromptBuilder) AddFragment(text string) *PromptBuilder {
	b.fragments = append(b.fragments, text)
	return b
}

// SetVariable sets a variable for template substitution.
func (b *PromptBuilder) SetVariable(key, value string) *PromptBuilder {
	b.variables[key] = value
	return b
}

// Build joins the fragments and substitutes variables in a single pass, so
// values containing "{{...}}" are never re-expanded. A placeholder with no
// value is an error.
func (b *PromptBuilder) Build() (string, error) {
	joined := strings.Join(b.fragments, "\n\n")

	var missing []string
	result := placeholderRe.ReplaceAllStringFunc(joined, func(m string) string {
		key := placeholderRe.FindStringSubmatch(m)[1]
		v, ok := b.variables[key]
		if !ok {
			missing = append(missing, key)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unresolved prompt variables: %s", strings.Join(missing, ", "))
	}
	return result, nil
}
