package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/autoloop/internal/commands"
	"github.com/ChamsBouzaiene/autoloop/internal/prompts"
)

// Agent runs think/execute cycles. An Agent owns its history and counters
// and must be driven by a single caller; it does no internal locking.
type Agent struct {
	llm         LLMClient
	registry    *commands.Registry
	generator   *prompts.Generator
	config      AgentConfig
	plugins     []Plugin
	hooks       Hooks
	parser      ResponseParser
	beforeThink BeforeThinkFunc
	tokenizer   Tokenizer
	summarizer  HistorySummarizer
	history     *EpisodicActionHistory

	state           *State
	totals          Usage
	cycleCount      int
	cyclesRemaining *int
}

func (a *Agent) model() string { return a.config.Model() }

// Config returns the agent configuration.
func (a *Agent) Config() AgentConfig { return a.config }

// History returns the agent's action history.
func (a *Agent) History() *EpisodicActionHistory { return a.history }

// Generator returns the system prompt generator.
func (a *Agent) Generator() *prompts.Generator { return a.generator }

// Registry returns the command registry.
func (a *Agent) Registry() *commands.Registry { return a.registry }

// LLM returns the model the agent currently thinks with.
func (a *Agent) LLM() ModelInfo { return GetModelInfo(a.model()) }

// Usage returns token usage accumulated over all cycles.
func (a *Agent) Usage() Usage { return a.totals }

// SendTokenLimit is the token ceiling for prompts. Defaults to three quarters
// of the selected model's context window.
func (a *Agent) SendTokenLimit() int {
	if a.config.SendTokenLimit > 0 {
		return a.config.SendTokenLimit
	}
	return a.LLM().DefaultSendTokenLimit()
}

// SystemPrompt renders the system prompt from the current registry.
func (a *Agent) SystemPrompt() (string, error) {
	return a.generator.ConstructSystemPrompt()
}

// CycleCount is the number of think cycles that reached the model.
func (a *Agent) CycleCount() int { return a.cycleCount }

// CyclesRemaining returns the authorized cycles left; ok is false when the
// agent runs unlimited.
func (a *Agent) CyclesRemaining() (n int, ok bool) {
	if a.cyclesRemaining == nil {
		return 0, false
	}
	return *a.cyclesRemaining, true
}

// Halted reports whether no authorized cycles remain.
func (a *Agent) Halted() bool {
	return a.cyclesRemaining != nil && *a.cyclesRemaining <= 0
}

// AuthorizeCycles grants n more cycles. A negative n switches to unlimited.
func (a *Agent) AuthorizeCycles(n int) {
	if n < 0 {
		a.cyclesRemaining = nil
		return
	}
	a.cyclesRemaining = Cycles(n)
}

// ResetCycleBudget restores cycles remaining to the configured budget.
func (a *Agent) ResetCycleBudget() {
	if a.config.CycleBudget == nil {
		a.cyclesRemaining = nil
		return
	}
	a.cyclesRemaining = Cycles(*a.config.CycleBudget)
}

// useFunctions reports whether commands travel as native function specs.
func (a *Agent) useFunctions() bool {
	return a.config.UseFunctions && a.registry.Len() > 0
}

// functions derives tool specs from the registry.
func (a *Agent) functions() []ToolSchema {
	if !a.useFunctions() {
		return nil
	}
	cmds := a.registry.Commands()
	out := make([]ToolSchema, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, ToolSchema{Name: c.Name, Description: c.Description, JSONSchema: c.Schema()})
	}
	return out
}

// ConstructBasePrompt returns the system prompt, the progress summary when
// the history is non-empty, then prepend and appendMsgs in that order. The
// result has no instruction yet.
func (a *Agent) ConstructBasePrompt(ctx context.Context, prepend, appendMsgs []ChatMessage) (*Prompt, error) {
	sys, err := a.SystemPrompt()
	if err != nil {
		return nil, err
	}
	p := NewPrompt(SystemMessage(sys))

	if !a.history.Empty() {
		summary, err := a.progressSummary(ctx)
		if err != nil {
			return nil, err
		}
		if summary != "" {
			p.Append(SystemMessage("## Progress\n\n" + summary))
		}
	}
	p.Append(prepend...)
	p.Append(appendMsgs...)
	return p, nil
}

// ConstructPrompt builds the full cycle prompt ending in instruction.
func (a *Agent) ConstructPrompt(ctx context.Context, instruction string) (*Prompt, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, &EmptyInstructionError{}
	}
	p, err := a.ConstructBasePrompt(ctx, nil, []ChatMessage{
		SystemMessage(a.generator.ResponseFormat(a.useFunctions())),
	})
	if err != nil {
		return nil, err
	}
	p.SetInstruction(UserMessage(instruction))
	return p, nil
}

func (a *Agent) progressSummary(ctx context.Context) (string, error) {
	summary := a.history.FormatSummary()
	if a.summarizer == nil || a.config.SummaryMaxTokens <= 0 {
		return summary, nil
	}
	before, err := a.tokenizer.CountTokens(summary, a.model())
	if err != nil {
		return "", fmt.Errorf("failed to count history tokens: %w", err)
	}
	if before <= a.config.SummaryMaxTokens {
		return summary, nil
	}
	compressed, err := a.summarizer.Summarize(ctx, a.history, a.config.SummaryMaxTokens)
	if err != nil {
		return "", err
	}
	after, _ := a.tokenizer.CountTokens(compressed, a.model())
	a.hooks.OnSummarize(ctx, a.currentState(), before, after)
	return compressed, nil
}

func (a *Agent) currentState() *State {
	if a.state == nil {
		a.state = &State{Cycle: a.cycleCount, Model: a.model(), Totals: a.totals}
	}
	return a.state
}

// Think runs one cycle: build the prompt, let the pre-think step add to it,
// call the model and parse its reply. An empty instruction falls back to the
// configured default.
//
// Transport errors are returned unchanged and leave the cycle count as is.
// Once the model has answered the cycle counts, even if the reply fails to
// parse (*InvalidAgentResponseError). History is never modified by Think.
func (a *Agent) Think(ctx context.Context, instruction string) (ThoughtProcessOutput, error) {
	if strings.TrimSpace(instruction) == "" {
		instruction = a.config.DefaultCycleInstruction
	}
	if strings.TrimSpace(instruction) == "" {
		return ThoughtProcessOutput{}, &EmptyInstructionError{}
	}

	model := a.model()
	a.state = &State{Cycle: a.cycleCount, Model: model, Instruction: instruction, Totals: a.totals}
	a.hooks.OnCycleStart(ctx, a.state)

	p, err := a.ConstructPrompt(ctx, instruction)
	if err != nil {
		return ThoughtProcessOutput{}, err
	}
	used, err := p.TokenLength(a.tokenizer, model)
	if err != nil {
		return ThoughtProcessOutput{}, fmt.Errorf("failed to count prompt tokens: %w", err)
	}

	if a.beforeThink != nil {
		if err := a.beforeThink(ctx, a, p, used); err != nil {
			return ThoughtProcessOutput{}, fmt.Errorf("before think: %w", err)
		}
	}

	messages := p.Messages()
	if n, err := CountTokensForMessages(a.tokenizer, messages, model); err == nil {
		a.state.PromptTokens = n
	}
	functions := a.functions()
	a.hooks.OnBeforeLLM(ctx, a.state, messages, functions)

	resp, err := a.llm.Chat(ctx, model, messages, functions, ChatOptions{
		Temperature:     a.config.Temperature,
		MaxOutputTokens: a.config.MaxOutputTokens,
	})
	if err != nil {
		return ThoughtProcessOutput{}, err
	}
	a.cycleCount++

	a.totals.Prompt += resp.Usage.Prompt
	a.totals.Completion += resp.Usage.Completion
	a.totals.Total += resp.Usage.Total
	a.state.Totals = a.totals
	a.hooks.OnAfterLLM(ctx, a.state, resp)

	out, err := a.parser.Parse(resp, !a.useFunctions())
	if err != nil {
		a.hooks.OnInvalidResponse(ctx, a.state, err)
		return ThoughtProcessOutput{}, err
	}
	a.hooks.OnResponse(ctx, a.state, out)
	return out, nil
}

// Execute runs the command chosen by Think and records the cycle.
//
// Non-empty userInput means the user declined the command: nothing runs and
// the feedback is recorded instead. Command failures are recorded as error
// results, not returned. Each call appends exactly one record and uses up one
// authorized cycle.
func (a *Agent) Execute(ctx context.Context, out ThoughtProcessOutput, userInput string) (ActionResult, error) {
	var result ActionResult
	st := a.currentState()

	switch {
	case userInput != "":
		result = Interrupted(userInput)
	case !out.HasCommand():
		result = Success("")
	default:
		a.hooks.OnCommand(ctx, st, out.CommandName, out.CommandArgs)
		output, err := a.registry.Execute(ctx, out.CommandName, out.CommandArgs)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return ActionResult{}, err
		case errors.Is(err, commands.ErrUnknownCommand):
			result = Failure(fmt.Sprintf("unknown command '%s'", out.CommandName), err)
		case err != nil:
			result = Failure(fmt.Sprintf("command '%s' failed", out.CommandName), err)
		default:
			result = Success(output)
		}
		a.hooks.OnCommandResult(ctx, st, out.CommandName, result)
	}

	a.RecordResult(out, result)
	return result, nil
}

// RecordResult appends a completed cycle to the history, for callers that
// run commands themselves.
func (a *Agent) RecordResult(out ThoughtProcessOutput, result ActionResult) {
	r := result
	a.history.Append(ActionRecord{
		Thoughts:    out.Thoughts,
		CommandName: out.CommandName,
		CommandArgs: copyArgs(out.CommandArgs),
		Result:      &r,
	})
	if a.cyclesRemaining != nil && *a.cyclesRemaining > 0 {
		*a.cyclesRemaining--
	}
}
