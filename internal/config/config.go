package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ChamsBouzaiene/autoloop/internal/memory"
)

// Config holds the user's persistent configuration preferences. It is built
// once at startup and passed down; nothing reads it through a global.
type Config struct {
	LLMProvider        string  `json:"llm_provider,omitempty"` // openai, anthropic, ollama, etc.
	APIKey             string  `json:"api_key,omitempty"`      // key for the selected provider
	BaseURL            string  `json:"base_url,omitempty"`     // optional override for API base URL
	SmartLLM           string  `json:"smart_llm,omitempty"`
	FastLLM            string  `json:"fast_llm,omitempty"`
	OpenAIFunctions    bool    `json:"openai_functions"`
	Temperature        float32 `json:"temperature"`
	SendTokenLimit     int     `json:"send_token_limit,omitempty"` // 0 = 3/4 of the model window
	SummaryMaxTokens   int     `json:"summary_max_tokens,omitempty"`
	AISettingsFile     string  `json:"ai_settings_file,omitempty"`
	PromptSettingsFile string  `json:"prompt_settings_file,omitempty"`
	MemoryBackend      string  `json:"memory_backend,omitempty"` // sqlite, keyword, none
	MemoryDir          string  `json:"memory_dir,omitempty"`
	Embedder           string  `json:"embedder,omitempty"` // openai, none
	EmbeddingModel     string  `json:"embedding_model,omitempty"`
	EmbeddingKey       string  `json:"embedding_key,omitempty"` // optional separate key for embeddings
	NotesFile          string  `json:"notes_file,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLMProvider:        "openai",
		SummaryMaxTokens:   2000,
		AISettingsFile:     "ai_settings.yaml",
		PromptSettingsFile: "prompt_settings.yaml",
		MemoryBackend:      memory.BackendSQLite,
		Embedder:           memory.EmbedderOpenAI,
		EmbeddingModel:     "text-embedding-3-small",
	}
}

// ApplyEnv overlays environment variables looked up with getenv. Malformed
// numeric or boolean values are reported and leave the field unchanged.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := map[string]*string{
		"LLM_PROVIDER":         &c.LLMProvider,
		"SMART_LLM":            &c.SmartLLM,
		"FAST_LLM":             &c.FastLLM,
		"AI_SETTINGS_FILE":     &c.AISettingsFile,
		"PROMPT_SETTINGS_FILE": &c.PromptSettingsFile,
		"MEMORY_BACKEND":       &c.MemoryBackend,
		"MEMORY_DIR":           &c.MemoryDir,
		"EMBEDDER":             &c.Embedder,
		"EMBEDDING_MODEL":      &c.EmbeddingModel,
		"NOTES_FILE":           &c.NotesFile,
	}
	for key, field := range str {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*field = v
		}
	}

	var errs []string
	if v := getenv("OPENAI_FUNCTIONS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("OPENAI_FUNCTIONS=%q: not a boolean", v))
		} else {
			c.OpenAIFunctions = b
		}
	}
	for key, field := range map[string]*int{
		"SEND_TOKEN_LIMIT":   &c.SendTokenLimit,
		"SUMMARY_MAX_TOKENS": &c.SummaryMaxTokens,
	} {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				errs = append(errs, fmt.Sprintf("%s=%q: not a non-negative integer", key, v))
				continue
			}
			*field = n
		}
	}
	if v := getenv("TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			errs = append(errs, fmt.Sprintf("TEMPERATURE=%q: not a number", v))
		} else {
			c.Temperature = float32(f)
		}
	}

	if c.EmbeddingKey == "" {
		c.EmbeddingKey = getenv("OPENAI_API_KEY")
	}
	if c.EmbeddingKey == "" && c.LLMProvider == "openai" {
		c.EmbeddingKey = c.APIKey
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DefaultModels fills unset model names with the provider's model.
func (c *Config) DefaultModels(model string) {
	if c.SmartLLM == "" {
		c.SmartLLM = model
	}
	if c.FastLLM == "" {
		c.FastLLM = c.SmartLLM
	}
}

// Validate fixes settings that cannot work and returns a warning for each
// change. It is the only place fallbacks are chosen.
func (c *Config) Validate() []string {
	var warnings []string

	switch c.MemoryBackend {
	case memory.BackendSQLite, memory.BackendKeyword, memory.BackendNone:
	case "":
		c.MemoryBackend = memory.BackendNone
	default:
		warnings = append(warnings, fmt.Sprintf("unknown memory backend %q, memory disabled", c.MemoryBackend))
		c.MemoryBackend = memory.BackendNone
	}

	switch c.Embedder {
	case memory.EmbedderOpenAI:
		if c.EmbeddingKey == "" && c.MemoryBackend == memory.BackendSQLite {
			warnings = append(warnings, "embedder \"openai\" needs OPENAI_API_KEY, falling back to \"none\" (memory ranked by keyword overlap)")
			c.Embedder = memory.EmbedderNone
		}
	case memory.EmbedderNone:
	case "":
		c.Embedder = memory.EmbedderNone
	default:
		warnings = append(warnings, fmt.Sprintf("unknown embedder %q, falling back to \"none\"", c.Embedder))
		c.Embedder = memory.EmbedderNone
	}

	if c.SmartLLM == "" {
		c.SmartLLM = "gpt-4o"
		warnings = append(warnings, "smart_llm not set, using "+c.SmartLLM)
	}
	if c.FastLLM == "" {
		c.FastLLM = c.SmartLLM
		warnings = append(warnings, "fast_llm not set, using "+c.FastLLM)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		warnings = append(warnings, fmt.Sprintf("temperature %.2f out of range [0, 2], using 0", c.Temperature))
		c.Temperature = 0
	}

	return warnings
}

// MemoryOptions returns the options for memory.New.
func (c Config) MemoryOptions(defaultDir string) memory.Options {
	dir := c.MemoryDir
	if dir == "" {
		dir = defaultDir
	}
	opts := memory.Options{
		Backend:        c.MemoryBackend,
		Dir:            dir,
		Embedder:       c.Embedder,
		OpenAIKey:      c.EmbeddingKey,
		EmbeddingModel: c.EmbeddingModel,
	}
	// a custom base URL only applies to embeddings when chat goes to OpenAI too
	if c.LLMProvider == "openai" {
		opts.OpenAIBaseURL = c.BaseURL
	}
	return opts
}
