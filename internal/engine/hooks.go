package engine

import "context"

// Hook observes the agent cycle. Hooks must not mutate the slices they receive.
type Hook interface {
	OnCycleStart(ctx context.Context, st *State)
	OnBeforeLLM(ctx context.Context, st *State, messages []ChatMessage, functions []ToolSchema)
	OnAfterLLM(ctx context.Context, st *State, resp LLMResponse)
	OnResponse(ctx context.Context, st *State, out ThoughtProcessOutput)
	OnInvalidResponse(ctx context.Context, st *State, err error)
	// Plugin hooks
	OnPluginError(ctx context.Context, st *State, plugin string, err error)
	OnPluginBudgetExceeded(ctx context.Context, st *State, plugin string, used, cost, limit int)
	// Execution hooks
	OnCommand(ctx context.Context, st *State, name string, args CommandArgs)
	OnCommandResult(ctx context.Context, st *State, name string, result ActionResult)
	OnSummarize(ctx context.Context, st *State, beforeTokens, afterTokens int)
}

// NopHook lets you implement any hook you need.
type NopHook struct{}

func (NopHook) OnCycleStart(context.Context, *State)                                  {}
func (NopHook) OnBeforeLLM(context.Context, *State, []ChatMessage, []ToolSchema)      {}
func (NopHook) OnAfterLLM(context.Context, *State, LLMResponse)                       {}
func (NopHook) OnResponse(context.Context, *State, ThoughtProcessOutput)              {}
func (NopHook) OnInvalidResponse(context.Context, *State, error)                      {}
func (NopHook) OnPluginError(context.Context, *State, string, error)                  {}
func (NopHook) OnPluginBudgetExceeded(context.Context, *State, string, int, int, int) {}
func (NopHook) OnCommand(context.Context, *State, string, CommandArgs)                {}
func (NopHook) OnCommandResult(context.Context, *State, string, ActionResult)         {}
func (NopHook) OnSummarize(context.Context, *State, int, int)                         {}
