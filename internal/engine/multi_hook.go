package engine

import "context"

type Hooks []Hook

func (hs Hooks) OnCycleStart(ctx context.Context, st *State) {
	for _, h := range hs {
		h.OnCycleStart(ctx, st)
	}
}
func (hs Hooks) OnBeforeLLM(ctx context.Context, st *State, m []ChatMessage, fns []ToolSchema) {
	for _, h := range hs {
		h.OnBeforeLLM(ctx, st, m, fns)
	}
}
func (hs Hooks) OnAfterLLM(ctx context.Context, st *State, r LLMResponse) {
	for _, h := range hs {
		h.OnAfterLLM(ctx, st, r)
	}
}
func (hs Hooks) OnResponse(ctx context.Context, st *State, out ThoughtProcessOutput) {
	for _, h := range hs {
		h.OnResponse(ctx, st, out)
	}
}
func (hs Hooks) OnInvalidResponse(ctx context.Context, st *State, err error) {
	for _, h := range hs {
		h.OnInvalidResponse(ctx, st, err)
	}
}
func (hs Hooks) OnPluginError(ctx context.Context, st *State, plugin string, err error) {
	for _, h := range hs {
		h.OnPluginError(ctx, st, plugin, err)
	}
}
func (hs Hooks) OnPluginBudgetExceeded(ctx context.Context, st *State, plugin string, used, cost, limit int) {
	for _, h := range hs {
		h.OnPluginBudgetExceeded(ctx, st, plugin, used, cost, limit)
	}
}
func (hs Hooks) OnCommand(ctx context.Context, st *State, name string, args CommandArgs) {
	for _, h := range hs {
		h.OnCommand(ctx, st, name, args)
	}
}
func (hs Hooks) OnCommandResult(ctx context.Context, st *State, name string, result ActionResult) {
	for _, h := range hs {
		h.OnCommandResult(ctx, st, name, result)
	}
}
func (hs Hooks) OnSummarize(ctx context.Context, st *State, before, after int) {
	for _, h := range hs {
		h.OnSummarize(ctx, st, before, after)
	}
}
