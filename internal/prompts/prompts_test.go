package prompts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/autoloop/internal/commands"
)

func noop(context.Context, map[string]any) (string, error) { return "", nil }

func testProfile() AIProfile {
	return AIProfile{
		Name:  "Tester",
		Role:  "an agent that writes tests.",
		Goals: []string{"Write a test", "Run it"},
	}
}

func TestPromptBuilder(t *testing.T) {
	b := NewPromptBuilder(&Prompt{Content: "Hello {{name}}"})
	b.SetVariable("name", "{{other}}").AddFragment("Bye")
	got, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "Hello {{other}}\n\nBye", got)

	_, err = NewPromptBuilder(&Prompt{Content: "Hi {{missing}}"}).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestPromptRegistry_GetLatest(t *testing.T) {
	r := NewPromptRegistry()
	r.Register(&Prompt{ID: "p", Version: "1.0.0", Content: "one"})
	r.Register(&Prompt{ID: "p", Version: "2.0.0", Content: "two", Deprecated: true})

	p, err := r.GetLatest("p")
	require.NoError(t, err)
	assert.Equal(t, "one", p.Content)

	r.Register(&Prompt{ID: "p", Version: "1.0.0", Content: "one", Deprecated: true})
	p, err = r.GetLatest("p")
	require.NoError(t, err)
	assert.Equal(t, "two", p.Content)

	_, err = r.GetLatest("nope")
	assert.Error(t, err)
	_, err = r.Get("p", "9.9.9")
	assert.Error(t, err)
}

func TestDefaultTemplatesRegistered(t *testing.T) {
	for _, id := range []string{PersonaID, TriggeringID, HistorySummaryID} {
		_, err := DefaultRegistry().GetLatest(id)
		assert.NoError(t, err, id)
	}
}

func TestGenerator_ConstructSystemPrompt(t *testing.T) {
	reg, err := commands.NewRegistry(commands.Command{Name: "read_file", Description: "Read a file", Fn: noop,
		SchemaJSON: `{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`})
	require.NoError(t, err)

	gen := NewGenerator(testProfile(), DefaultDirectives(), reg)
	got, err := gen.ConstructSystemPrompt()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "You are Tester, an agent that writes tests.\n"))
	assert.Contains(t, got, "## Goals\nFor your task, you must fulfill the following goals:\n1. Write a test\n2. Run it")
	assert.Contains(t, got, "## Constraints\n")
	assert.Contains(t, got, "## Resources\n")
	assert.Contains(t, got, "## Commands\nYou have access to the following commands:\n1. read_file: Read a file, params: (path: string)")
	assert.Contains(t, got, "## Best practices\n")
	assert.NotContains(t, got, "API budget")

	idx := func(s string) int { return strings.Index(got, s) }
	assert.Less(t, idx("## Goals"), idx("## Constraints"))
	assert.Less(t, idx("## Constraints"), idx("## Resources"))
	assert.Less(t, idx("## Resources"), idx("## Commands"))
	assert.Less(t, idx("## Commands"), idx("## Best practices"))
}

func TestGenerator_ReflectsRegistryMutations(t *testing.T) {
	reg, err := commands.NewRegistry()
	require.NoError(t, err)
	gen := NewGenerator(testProfile(), Directives{}, reg)

	before, err := gen.ConstructSystemPrompt()
	require.NoError(t, err)
	assert.NotContains(t, before, "## Commands")

	require.NoError(t, reg.Register(commands.Command{Name: "late_cmd", Description: "Added later", Fn: noop}))
	after, err := gen.ConstructSystemPrompt()
	require.NoError(t, err)
	assert.Contains(t, after, "1. late_cmd: Added later, params: ()")

	reg.Unregister("late_cmd")
	again, err := gen.ConstructSystemPrompt()
	require.NoError(t, err)
	assert.Equal(t, before, again)
}

func TestGenerator_APIBudget(t *testing.T) {
	p := testProfile()
	p.APIBudget = 1.5
	got, err := NewGenerator(p, Directives{}, nil).ConstructSystemPrompt()
	require.NoError(t, err)
	assert.Contains(t, got, "Your API budget is $1.500")
}

func TestGenerator_ResponseFormat(t *testing.T) {
	gen := NewGenerator(testProfile(), Directives{}, nil)

	withCommand := gen.ResponseFormat(false)
	assert.True(t, strings.HasPrefix(withCommand, "Respond strictly with JSON. The JSON should be compatible"))
	for _, field := range []string{"text: string;", "reasoning: string;", "plan: string;", "criticism: string;", "speak: string;", "command: {", "args: Record<string, any>;"} {
		assert.Contains(t, withCommand, field)
	}

	functions := gen.ResponseFormat(true)
	assert.Contains(t, functions, "through a function_call")
	assert.NotContains(t, functions, "command: {")
}

func TestGenerator_TriggeringPrompt(t *testing.T) {
	gen := NewGenerator(testProfile(), Directives{}, nil)
	assert.True(t, strings.HasPrefix(gen.TriggeringPrompt(), "Determine exactly one command to use"))

	gen.WithTemplates(NewPromptRegistry())
	assert.Equal(t, "", gen.TriggeringPrompt())
	_, err := gen.ConstructSystemPrompt()
	assert.Error(t, err)
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ai_settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`ai_name: Builder
ai_role: an agent that builds things.
ai_goals:
  - Build it
api_budget: 2.5
`), 0644))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, AIProfile{Name: "Builder", Role: "an agent that builds things.", Goals: []string{"Build it"}, APIBudget: 2.5}, p)

	out := filepath.Join(t.TempDir(), "copy.yaml")
	require.NoError(t, p.Save(out))
	again, err := LoadProfile(out)
	require.NoError(t, err)
	assert.Equal(t, p, again)

	require.NoError(t, os.WriteFile(path, []byte("ai_role: nameless\n"), 0644))
	_, err = LoadProfile(path)
	assert.Error(t, err)
}

func TestDirectives(t *testing.T) {
	d := DefaultDirectives()
	assert.NotEmpty(t, d.Constraints)
	assert.NotEmpty(t, d.Resources)
	assert.NotEmpty(t, d.BestPractices)

	loaded, err := LoadDirectives("")
	require.NoError(t, err)
	assert.Equal(t, d, loaded)

	extra, err := ParseDirectives([]byte("constraints:\n  - Be brief\n"))
	require.NoError(t, err)
	merged := d.Merge(extra)
	assert.Equal(t, "Be brief", merged.Constraints[len(merged.Constraints)-1])
	assert.Len(t, d.Constraints, len(merged.Constraints)-1)

	_, err = ParseDirectives([]byte("constraints: [unterminated"))
	assert.Error(t, err)
}
