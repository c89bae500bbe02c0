package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/autoloop/internal/engine"
)

// Summarizer handles LLM-based titles and summaries for sessions.
type Summarizer struct {
	llm   engine.LLMClient
	model string
}

// NewSummarizer creates a new session summarizer.
func NewSummarizer(llm engine.LLMClient, model string) *Summarizer {
	return &Summarizer{
		llm:   llm,
		model: model,
	}
}

func renderSteps(records []engine.ActionRecord) string {
	steps := make([]string, len(records))
	for i, r := range records {
		steps[i] = engine.FormatStep(i+1, r)
	}
	return strings.Join(steps, "\n\n")
}

// GenerateTitle generates a short 3-5 word title for the session.
func (s *Summarizer) GenerateTitle(ctx context.Context, records []engine.ActionRecord) (string, error) {
	if len(records) == 0 {
		return "New Session", nil
	}

	systemPrompt := "You are a helpful assistant. Generate a short, concise title (3-5 words) for this agent run based on the steps taken. Do not use quotes or punctuation."

	// the first steps are enough to determine intent
	limit := min(len(records), 5)

	userPrompt := fmt.Sprintf("Steps:\n%s\n\nGenerate Title:", renderSteps(records[:limit]))

	msgs := []engine.ChatMessage{
		engine.SystemMessage(systemPrompt),
		engine.UserMessage(userPrompt),
	}

	resp, err := s.llm.Chat(ctx, s.model, msgs, nil, engine.ChatOptions{
		MaxOutputTokens: 20,
		Temperature:     0.3,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate title: %w", err)
	}

	return strings.Trim(strings.TrimSpace(resp.Assistant.Content), `"'`), nil
}

// GenerateSummary generates a context summary shown when listing sessions.
func (s *Summarizer) GenerateSummary(ctx context.Context, records []engine.ActionRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	systemPrompt := "You represent the memory of an autonomous agent. Summarize the following steps to preserve context for a future run. Focus on: what was accomplished, failed commands, user feedback, and next steps. Be concise."

	userPrompt := fmt.Sprintf("Summarize this run:\n\n%s", renderSteps(records))

	msgs := []engine.ChatMessage{
		engine.SystemMessage(systemPrompt),
		engine.UserMessage(userPrompt),
	}

	resp, err := s.llm.Chat(ctx, s.model, msgs, nil, engine.ChatOptions{
		MaxOutputTokens: 500,
		Temperature:     0.1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}

	return strings.TrimSpace(resp.Assistant.Content), nil
}
