package engine

import (
	"github.com/ChamsBouzaiene/autoloop/internal/prompts"
)

// AgentConfig holds configuration for an agent instance.
type AgentConfig struct {
	Profile                 prompts.AIProfile
	Directives              prompts.Directives
	BigBrain                bool // use SmartLLM when true, FastLLM otherwise
	SmartLLM                string
	FastLLM                 string
	UseFunctions            bool   // offer commands through native function calling
	DefaultCycleInstruction string // used when Think is called without an instruction
	CycleBudget             *int   // nil = unlimited, 0 = halted, N = supervised cycles
	SendTokenLimit          int    // 0 = 3/4 of the selected model's context window
	SummaryMaxTokens        int    // progress digests above this are summarized (0 = never)
	MaxOutputTokens         int    // 0 = provider default
	Temperature             float32
}

// DefaultAgentConfig returns a supervised configuration: one authorized
// cycle at a time, smart model, triggering prompt as default instruction.
func DefaultAgentConfig() AgentConfig {
	var instruction string
	if p, err := prompts.DefaultRegistry().GetLatest(prompts.TriggeringID); err == nil {
		instruction = p.Content
	}
	return AgentConfig{
		Profile:                 prompts.DefaultProfile(),
		Directives:              prompts.DefaultDirectives(),
		BigBrain:                true,
		SmartLLM:                "gpt-4o",
		FastLLM:                 "gpt-4o-mini",
		DefaultCycleInstruction: instruction,
		CycleBudget:             Cycles(1),
		SummaryMaxTokens:        2000,
		MaxOutputTokens:         4096,
	}
}

// Cycles returns a pointer to n, for CycleBudget.
func Cycles(n int) *int { return &n }

// Model returns the model name selected by BigBrain.
func (c AgentConfig) Model() string {
	if c.BigBrain {
		return c.SmartLLM
	}
	return c.FastLLM
}
