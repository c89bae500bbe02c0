package engine

import "strings"

// DefaultMaxTokens is the context window assumed for unknown models.
const DefaultMaxTokens = 8192

// ModelInfo describes the selected model.
type ModelInfo struct {
	Name      string
	MaxTokens int // context window
}

// DefaultSendTokenLimit is three quarters of the context window; the rest is
// left for the reply.
func (m ModelInfo) DefaultSendTokenLimit() int {
	return m.MaxTokens * 3 / 4
}

// GetModelInfo returns the context window for a model.
func GetModelInfo(model string) ModelInfo {
	modelLower := strings.ToLower(model)
	info := ModelInfo{Name: model, MaxTokens: DefaultMaxTokens}

	switch {
	// Kimi K2 (200k context)
	case strings.Contains(modelLower, "kimi"):
		info.MaxTokens = 200000

	case strings.Contains(modelLower, "gpt-4o"), strings.Contains(modelLower, "gpt-4-turbo"), strings.HasPrefix(modelLower, "o1"):
		info.MaxTokens = 128000

	case strings.Contains(modelLower, "gpt-4-32k"):
		info.MaxTokens = 32768

	case strings.Contains(modelLower, "gpt-4"):
		info.MaxTokens = 8191

	case strings.Contains(modelLower, "gpt-3.5-turbo"):
		info.MaxTokens = 16385

	// Claude 3.x / 4.x (200k context)
	case strings.Contains(modelLower, "claude"), strings.Contains(modelLower, "sonnet"), strings.Contains(modelLower, "opus"):
		info.MaxTokens = 200000

	case strings.Contains(modelLower, "deepseek"):
		info.MaxTokens = 64000
	}

	return info
}
