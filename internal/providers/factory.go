package providers

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ChamsBouzaiene/autoloop/internal/engine"
)

// compatible describes a provider reachable through the OpenAI API shape.
type compatible struct {
	keyVar       string // "" = no key required
	defaultKey   string
	modelVar     string
	defaultModel string
	baseURLVar   string
	defaultURL   string
}

var openAICompatible = map[string]compatible{
	"openai":   {keyVar: "OPENAI_API_KEY", modelVar: "OPENAI_MODEL", defaultModel: "gpt-4o", baseURLVar: "OPENAI_BASE_URL"},
	"kimi":     {keyVar: "KIMI_API_KEY", modelVar: "KIMI_MODEL", defaultModel: "kimi-k2-250711", baseURLVar: "KIMI_BASE_URL", defaultURL: "https://ark.ap-southeast.bytepluses.com/api/v3"},
	"gemini":   {keyVar: "GEMINI_API_KEY", modelVar: "GEMINI_MODEL", defaultModel: "gemini-1.5-flash", defaultURL: "https://generativelanguage.googleapis.com/v1beta/openai"},
	"lmstudio": {defaultKey: "lm-studio", modelVar: "LMSTUDIO_MODEL", defaultModel: "local-model", baseURLVar: "LMSTUDIO_BASE_URL", defaultURL: "http://localhost:1234/v1"},
	"ollama":   {defaultKey: "ollama", modelVar: "OLLAMA_MODEL", defaultModel: "llama3.1", baseURLVar: "OLLAMA_BASE_URL", defaultURL: "http://localhost:11434/v1"},
	"deepseek": {keyVar: "DEEPSEEK_API_KEY", modelVar: "DEEPSEEK_MODEL", defaultModel: "deepseek-chat", defaultURL: "https://api.deepseek.com/v1"},
	"groq":     {keyVar: "GROQ_API_KEY", modelVar: "GROQ_MODEL", defaultModel: "llama-3.1-70b-versatile", defaultURL: "https://api.groq.com/openai/v1"},
}

// Supported lists the provider names NewLLMClient understands.
func Supported() []string {
	names := []string{"anthropic"}
	for name := range openAICompatible {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnvVars returns the names of the key, model and base URL variables read for
// provider. Empty names are not read.
func EnvVars(provider string) (keyVar, modelVar, baseURLVar string, ok bool) {
	provider = strings.ToLower(provider)
	if provider == "anthropic" {
		return "ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "", true
	}
	p, ok := openAICompatible[provider]
	return p.keyVar, p.modelVar, p.baseURLVar, ok
}

// NewLLMClientFromEnv creates an engine.LLMClient from environment variables.
// It returns the client and the provider's default model.
func NewLLMClientFromEnv() (engine.LLMClient, string, error) {
	return NewLLMClient(os.Getenv)
}

// NewLLMClient creates a client from LLM_PROVIDER (default "openai") and the
// provider's key, model and base URL variables, looked up with getenv.
func NewLLMClient(getenv func(string) string) (engine.LLMClient, string, error) {
	provider := strings.ToLower(getenv("LLM_PROVIDER"))
	if provider == "" {
		provider = "openai"
	}

	if provider == "anthropic" {
		apiKey := getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		modelName := getenv("ANTHROPIC_MODEL")
		if modelName == "" {
			modelName = "claude-3-5-sonnet-latest"
		}
		client, err := NewAnthropicClient(apiKey, modelName)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Anthropic client: %w", err)
		}
		return client, modelName, nil
	}

	p, ok := openAICompatible[provider]
	if !ok {
		return nil, "", fmt.Errorf("unknown LLM_PROVIDER: %s (supported: %s)", provider, strings.Join(Supported(), ", "))
	}

	apiKey := p.defaultKey
	if p.keyVar != "" {
		apiKey = getenv(p.keyVar)
		if apiKey == "" {
			return nil, "", fmt.Errorf("%s not set", p.keyVar)
		}
	}

	modelName := getenv(p.modelVar)
	if modelName == "" {
		modelName = p.defaultModel
	}

	baseURL := p.defaultURL
	if p.baseURLVar != "" {
		if v := getenv(p.baseURLVar); v != "" {
			baseURL = v
		}
	}

	client, err := NewOpenAIClient(apiKey, modelName, baseURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create %s client: %w", provider, err)
	}
	return client, modelName, nil
}
