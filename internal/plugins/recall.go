// Package plugins holds planning plugins that add context to the agent's
// prompt before each completion call.
package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/autoloop/internal/engine"
	"github.com/ChamsBouzaiene/autoloop/internal/memory"
	"github.com/ChamsBouzaiene/autoloop/internal/prompts"
)

// MemoryRecall adds the memories most relevant to the agent's goals and the
// current cycle instruction.
type MemoryRecall struct {
	Memory memory.Provider
	K      int // entries to recall (default memory.DefaultRelevantCount)
}

var _ engine.Plugin = (*MemoryRecall)(nil)

// NewMemoryRecall creates a recall plugin over m.
func NewMemoryRecall(m memory.Provider) *MemoryRecall {
	return &MemoryRecall{Memory: m, K: memory.DefaultRelevantCount}
}

func (p *MemoryRecall) Name() string              { return "memory_recall" }
func (p *MemoryRecall) CanHandleOnPlanning() bool { return p.Memory != nil }

// OnPlanning implements engine.Plugin.
func (p *MemoryRecall) OnPlanning(ctx context.Context, gen *prompts.Generator, raw []engine.ChatMessage) (string, error) {
	query := recallQuery(gen, raw)
	if query == "" {
		return "", nil
	}

	k := p.K
	if k <= 0 {
		k = memory.DefaultRelevantCount
	}
	found, err := p.Memory.GetRelevant(ctx, query, k)
	if err != nil {
		return "", fmt.Errorf("memory recall: %w", err)
	}
	if len(found) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("This reminds you of these events from your past:\n")
	for _, m := range found {
		b.WriteString("- ")
		b.WriteString(strings.ReplaceAll(strings.TrimSpace(m), "\n", " "))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// recallQuery combines the profile goals with the trailing instruction.
func recallQuery(gen *prompts.Generator, raw []engine.ChatMessage) string {
	var parts []string
	if gen != nil {
		parts = append(parts, gen.Profile().Goals...)
	}
	if n := len(raw); n > 0 && raw[n-1].Role == engine.RoleUser {
		parts = append(parts, raw[n-1].Content)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
