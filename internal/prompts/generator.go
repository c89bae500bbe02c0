package prompts

import (
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/autoloop/internal/commands"
)

// Generator renders the system prompt from the agent's profile, its
// directives and the live command registry. It holds no cached output:
// every call reflects the registry as it is at that moment.
type Generator struct {
	profile    AIProfile
	directives Directives
	commands   *commands.Registry
	templates  *PromptRegistry
}

// NewGenerator creates a generator. reg may be nil for an agent without commands.
func NewGenerator(profile AIProfile, directives Directives, reg *commands.Registry) *Generator {
	return &Generator{
		profile:    profile,
		directives: directives,
		commands:   reg,
		templates:  DefaultRegistry(),
	}
}

// WithTemplates swaps the template registry (tests, custom personas).
func (g *Generator) WithTemplates(r *PromptRegistry) *Generator {
	g.templates = r
	return g
}

func (g *Generator) Profile() AIProfile         { return g.profile }
func (g *Generator) Directives() Directives     { return g.directives }
func (g *Generator) Templates() *PromptRegistry { return g.templates }

// Commands returns the currently registered commands sorted by name.
func (g *Generator) Commands() []commands.Command {
	return g.commands.Commands()
}

// ConstructSystemPrompt returns the full system prompt.
func (g *Generator) ConstructSystemPrompt() (string, error) {
	intro, err := g.templates.Render(PersonaID, map[string]string{
		"name": g.profile.Name,
		"role": g.profile.Role,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render persona: %w", err)
	}

	sections := []string{intro}

	if len(g.profile.Goals) > 0 {
		goals := "## Goals\nFor your task, you must fulfill the following goals:\n" + numbered(g.profile.Goals)
		if g.profile.APIBudget > 0 {
			goals += fmt.Sprintf("\n\nIt takes money to let you run. Your API budget is $%.3f", g.profile.APIBudget)
		}
		sections = append(sections, goals)
	}
	if len(g.directives.Constraints) > 0 {
		sections = append(sections, "## Constraints\nYou operate within the following constraints:\n"+numbered(g.directives.Constraints))
	}
	if len(g.directives.Resources) > 0 {
		sections = append(sections, "## Resources\nYou can leverage access to the following resources:\n"+numbered(g.directives.Resources))
	}
	if cmds := g.Commands(); len(cmds) > 0 {
		sections = append(sections, "## Commands\nYou have access to the following commands:\n"+commands.FormatNumbered(cmds))
	}
	if len(g.directives.BestPractices) > 0 {
		sections = append(sections, "## Best practices\n"+numbered(g.directives.BestPractices))
	}

	return strings.Join(sections, "\n\n"), nil
}

// ResponseFormat describes the JSON object the model must reply with. With
// native function calling the command travels in the function call, so the
// schema carries thoughts only.
func (g *Generator) ResponseFormat(useFunctions bool) string {
	var b strings.Builder
	b.WriteString("Respond strictly with JSON")
	if useFunctions {
		b.WriteString(", and also specify a command to use through a function_call")
	}
	b.WriteString(". The JSON should be compatible with the TypeScript type `Response` from the following:\n")
	b.WriteString(`interface Response {
thoughts: {
  // Thoughts
  text: string;
  reasoning: string;
  // Short markdown-style bullet list that conveys the long-term plan
  plan: string;
  // Constructive self-criticism
  criticism: string;
  // Summary of thoughts to say to the user
  speak: string;
};`)
	if !useFunctions {
		b.WriteString(`
command: {
  name: string;
  args: Record<string, any>;
};`)
	}
	b.WriteString("\n}")
	return b.String()
}

// TriggeringPrompt returns the default cycle instruction.
func (g *Generator) TriggeringPrompt() string {
	p, err := g.templates.GetLatest(TriggeringID)
	if err != nil {
		return ""
	}
	return p.Content
}

func numbered(items []string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, it)
	}
	return strings.Join(lines, "\n")
}
