package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ChamsBouzaiene/autoloop/internal/prompts"
)

// HistorySummarizer compresses a progress digest that no longer fits in
// maxTokens.
type HistorySummarizer interface {
	Summarize(ctx context.Context, h *EpisodicActionHistory, maxTokens int) (string, error)
}

// LLMHistorySummarizer asks the model to compress all but the most recent
// steps. The summary of the older prefix is cached and only recomputed when
// the prefix grows.
type LLMHistorySummarizer struct {
	LLM       LLMClient
	Model     string
	KeepLast  int // steps kept verbatim (default 3)
	Templates *prompts.PromptRegistry

	cachedSteps int
	cached      string
}

// NewLLMHistorySummarizer creates a summarizer using the default templates.
func NewLLMHistorySummarizer(llm LLMClient, model string) *LLMHistorySummarizer {
	return &LLMHistorySummarizer{LLM: llm, Model: model, KeepLast: 3, Templates: prompts.DefaultRegistry()}
}

// Summarize implements HistorySummarizer.
func (s *LLMHistorySummarizer) Summarize(ctx context.Context, h *EpisodicActionHistory, maxTokens int) (string, error) {
	records := h.Records()
	keep := s.KeepLast
	if keep <= 0 {
		keep = 3
	}
	if len(records) <= keep {
		return h.FormatSummary(), nil
	}

	older := records[:len(records)-keep]
	if s.cachedSteps != len(older) {
		summary, err := s.summarizeSteps(ctx, older, maxTokens)
		if err != nil {
			return "", err
		}
		s.cachedSteps = len(older)
		s.cached = summary
	}

	parts := []string{"### Steps 1-" + strconv.Itoa(len(older)) + " (summarized)\n" + s.cached}
	for i, r := range records[len(older):] {
		parts = append(parts, FormatStep(len(older)+i+1, r))
	}
	return strings.Join(parts, "\n\n"), nil
}

func (s *LLMHistorySummarizer) summarizeSteps(ctx context.Context, records []ActionRecord, maxTokens int) (string, error) {
	steps := make([]string, len(records))
	for i, r := range records {
		steps[i] = FormatStep(i+1, r)
	}
	templates := s.Templates
	if templates == nil {
		templates = prompts.DefaultRegistry()
	}
	instruction, err := templates.Render(prompts.HistorySummaryID, map[string]string{
		"max_tokens": strconv.Itoa(maxTokens / 2),
		"steps":      strings.Join(steps, "\n\n"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render summary prompt: %w", err)
	}

	resp, err := s.LLM.Chat(ctx, s.Model, []ChatMessage{UserMessage(instruction)}, nil, ChatOptions{MaxOutputTokens: maxTokens / 2})
	if err != nil {
		return "", fmt.Errorf("history summary failed: %w", err)
	}
	return strings.TrimSpace(resp.Assistant.Content), nil
}
