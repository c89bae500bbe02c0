package engine

import (
	"fmt"
	"log"

	"github.com/ChamsBouzaiene/autoloop/internal/commands"
	"github.com/ChamsBouzaiene/autoloop/internal/prompts"
)

// AgentBuilder helps construct an Agent with a fluent API.
type AgentBuilder struct {
	config         AgentConfig
	llm            LLMClient
	registry       *commands.Registry
	templates      *prompts.PromptRegistry
	plugins        []Plugin
	hooks          Hooks
	parser         ResponseParser
	beforeThink    BeforeThinkFunc
	beforeThinkSet bool
	tokenizer      Tokenizer
	summarizer     HistorySummarizer
	history        *EpisodicActionHistory
	cycleCount     int
	logger         *log.Logger
}

// NewAgentBuilder creates a new agent builder with default configuration.
func NewAgentBuilder() *AgentBuilder {
	return &AgentBuilder{
		config: DefaultAgentConfig(),
	}
}

// WithLLM sets the LLM client.
func (b *AgentBuilder) WithLLM(llm LLMClient) *AgentBuilder {
	b.llm = llm
	return b
}

// WithRegistry sets the command registry. Commands registered later are
// picked up on the next cycle.
func (b *AgentBuilder) WithRegistry(reg *commands.Registry) *AgentBuilder {
	b.registry = reg
	return b
}

// WithConfig replaces the whole configuration.
func (b *AgentBuilder) WithConfig(cfg AgentConfig) *AgentBuilder {
	b.config = cfg
	return b
}

// WithProfile sets the AI profile.
func (b *AgentBuilder) WithProfile(p prompts.AIProfile) *AgentBuilder {
	b.config.Profile = p
	return b
}

// WithDirectives sets the directives.
func (b *AgentBuilder) WithDirectives(d prompts.Directives) *AgentBuilder {
	b.config.Directives = d
	return b
}

// WithTemplates sets the prompt template registry used by the generator.
func (b *AgentBuilder) WithTemplates(r *prompts.PromptRegistry) *AgentBuilder {
	b.templates = r
	return b
}

// WithPlugins sets the planning plugins, consulted in the given order.
func (b *AgentBuilder) WithPlugins(plugins ...Plugin) *AgentBuilder {
	b.plugins = append([]Plugin(nil), plugins...)
	return b
}

// WithHooks sets custom hooks.
func (b *AgentBuilder) WithHooks(hooks Hooks) *AgentBuilder {
	b.hooks = hooks
	return b
}

// WithParser sets the response parser.
func (b *AgentBuilder) WithParser(p ResponseParser) *AgentBuilder {
	b.parser = p
	return b
}

// WithBeforeThink replaces the plugin planning step. nil disables it.
func (b *AgentBuilder) WithBeforeThink(fn BeforeThinkFunc) *AgentBuilder {
	b.beforeThink = fn
	b.beforeThinkSet = true
	return b
}

// WithTokenizer sets the tokenizer used for prompt accounting.
func (b *AgentBuilder) WithTokenizer(t Tokenizer) *AgentBuilder {
	b.tokenizer = t
	return b
}

// WithSummarizer sets the progress summarizer.
func (b *AgentBuilder) WithSummarizer(s HistorySummarizer) *AgentBuilder {
	b.summarizer = s
	return b
}

// WithHistory restores an existing history, e.g. from a saved session.
func (b *AgentBuilder) WithHistory(h *EpisodicActionHistory) *AgentBuilder {
	b.history = h
	return b
}

// WithCycleCount resumes the cycle counter, e.g. from a saved session.
func (b *AgentBuilder) WithCycleCount(n int) *AgentBuilder {
	b.cycleCount = n
	return b
}

// WithLogger sets the logger for build-time output and the default hooks.
func (b *AgentBuilder) WithLogger(l *log.Logger) *AgentBuilder {
	b.logger = l
	return b
}

// Build constructs the Agent instance.
func (b *AgentBuilder) Build() (*Agent, error) {
	if b.llm == nil {
		return nil, fmt.Errorf("LLM client not configured: use WithLLM")
	}
	if b.config.Model() == "" {
		return nil, fmt.Errorf("no model configured: set SmartLLM/FastLLM")
	}
	if b.config.Profile.Name == "" {
		return nil, fmt.Errorf("AI profile has no name")
	}

	logger := b.logger
	if logger == nil {
		logger = log.Default()
	}

	registry := b.registry
	if registry == nil {
		registry, _ = commands.NewRegistry()
	}

	generator := prompts.NewGenerator(b.config.Profile, b.config.Directives, registry)
	if b.templates != nil {
		generator.WithTemplates(b.templates)
	}

	if b.hooks == nil {
		b.hooks = Hooks{
			LoggerHook{L: logger},
			NewResponseHook(b.config.Profile.Name),
		}
	}
	parser := b.parser
	if parser == nil {
		parser = OneShotParser{}
	}
	tokenizer := b.tokenizer
	if tokenizer == nil {
		tokenizer = GetTokenizerForModel(b.config.Model())
	}
	beforeThink := b.beforeThink
	if !b.beforeThinkSet {
		beforeThink = PluginPlanning
	}
	history := b.history
	if history == nil {
		history = NewEpisodicActionHistory()
	}
	if b.cycleCount < 0 {
		return nil, fmt.Errorf("cycle count must not be negative, got %d", b.cycleCount)
	}

	a := &Agent{
		llm:         b.llm,
		registry:    registry,
		generator:   generator,
		config:      b.config,
		plugins:     b.plugins,
		hooks:       b.hooks,
		parser:      parser,
		beforeThink: beforeThink,
		tokenizer:   tokenizer,
		summarizer:  b.summarizer,
		history:     history,
		cycleCount:  b.cycleCount,
	}
	a.ResetCycleBudget()

	logInitialConfiguration(logger, a)
	return a, nil
}

// logInitialConfiguration logs a short summary: model, token limit, system prompt size and commands.
func logInitialConfiguration(logger *log.Logger, a *Agent) {
	model := a.model()
	sys, err := a.SystemPrompt()
	if err != nil {
		logger.Printf("⚠️  system prompt: %v", err)
		return
	}
	sysTokens, _ := a.tokenizer.CountTokens(sys, model)

	categories := make(map[string]bool)
	for _, c := range a.registry.Commands() {
		if c.Metadata.Category != "" {
			categories[c.Metadata.Category] = true
		}
	}

	logger.Printf("📋 AGENT: %s | model=%s | send limit=%d tokens", a.config.Profile.Name, model, a.SendTokenLimit())
	logger.Printf("📊 system prompt ~%d tokens | %d commands (%d categories) | %d plugins",
		sysTokens, a.registry.Len(), len(categories), len(a.plugins))
	if n, ok := a.CyclesRemaining(); ok {
		logger.Printf("🔁 supervised: %d cycle(s) authorized", n)
	} else {
		logger.Printf("🔁 continuous mode")
	}
}
