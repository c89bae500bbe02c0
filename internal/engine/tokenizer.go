// Package engine provides the agent think/execute cycle.
// This file contains token counting interfaces and implementations.

package engine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer provides token counting for text.
// Different models use different tokenization schemes, so the model name is required.
type Tokenizer interface {
	// CountTokens returns the number of tokens in the given text for the specified model.
	CountTokens(text string, model string) (int, error)
}

// EstimateTokens provides a rough token count estimation.
// Uses a simple heuristic: ~4 characters per token for English/code.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}

	charCount := len([]rune(text))
	whitespaceCount := strings.Count(text, " ") + strings.Count(text, "\n") + strings.Count(text, "\t")

	// (characters / 4) + (whitespace / 6): whitespace-heavy text has fewer tokens
	estimated := (charCount / 4) + (whitespaceCount / 6)

	if estimated < 1 {
		return 1
	}
	return estimated
}

// DefaultTokenizer uses estimation as a fallback when no specific tokenizer is available.
type DefaultTokenizer struct{}

// CountTokens implements Tokenizer using estimation.
func (t DefaultTokenizer) CountTokens(text string, model string) (int, error) {
	return EstimateTokens(text), nil
}

// TikTokenTokenizer counts tokens with the BPE encoding of OpenAI models.
// Models without a known encoding fall back to estimation.
type TikTokenTokenizer struct {
	mu        sync.Mutex
	encodings map[string]*tiktoken.Tiktoken
	missing   map[string]bool
}

// NewTikTokenTokenizer creates a tokenizer with an empty encoding cache.
func NewTikTokenTokenizer() *TikTokenTokenizer {
	return &TikTokenTokenizer{
		encodings: make(map[string]*tiktoken.Tiktoken),
		missing:   make(map[string]bool),
	}
}

func (t *TikTokenTokenizer) encoding(model string) *tiktoken.Tiktoken {
	t.mu.Lock()
	defer t.mu.Unlock()
	if enc, ok := t.encodings[model]; ok {
		return enc
	}
	if t.missing[model] {
		return nil
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		t.missing[model] = true
		return nil
	}
	t.encodings[model] = enc
	return enc
}

// CountTokens implements Tokenizer.
func (t *TikTokenTokenizer) CountTokens(text string, model string) (int, error) {
	if text == "" {
		return 0, nil
	}
	if enc := t.encoding(model); enc != nil {
		return len(enc.Encode(text, nil, nil)), nil
	}
	return EstimateTokens(text), nil
}

// CountTokensForMessages counts tokens for a slice of messages, including
// per-message formatting overhead (role names, separators).
func CountTokensForMessages(tokenizer Tokenizer, messages []ChatMessage, model string) (int, error) {
	total := 0
	for _, msg := range messages {
		n, err := CountMessageTokens(tokenizer, msg, model)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// CountMessageTokens counts one message the same way CountTokensForMessages does.
func CountMessageTokens(tokenizer Tokenizer, msg ChatMessage, model string) (int, error) {
	roleTokens, err := tokenizer.CountTokens(string(msg.Role), model)
	if err != nil {
		return 0, fmt.Errorf("failed to count role tokens: %w", err)
	}
	contentTokens, err := tokenizer.CountTokens(msg.Content, model)
	if err != nil {
		return 0, fmt.Errorf("failed to count content tokens: %w", err)
	}
	// approximately 4 tokens of formatting per message
	return roleTokens + contentTokens + 4, nil
}

// GetTokenizerForModel returns an appropriate tokenizer for the given model.
func GetTokenizerForModel(model string) Tokenizer {
	if strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "text-") {
		return NewTikTokenTokenizer()
	}
	return DefaultTokenizer{}
}
