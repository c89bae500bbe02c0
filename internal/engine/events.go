package engine

import (
	"context"
)

type Event struct {
	Kind string // "cycle_start", "before_llm", "after_llm", "response", "invalid_response", "plugin_error", "plugin_budget_exceeded", "command", "command_result", "summarize"
	Data any
}

// EventHook forwards cycle events to a channel, for UIs and recorders.
// Sends block, so the reader must keep up.
type EventHook struct{ Ch chan<- Event }

func (h EventHook) OnCycleStart(_ context.Context, st *State) {
	h.Ch <- Event{Kind: "cycle_start", Data: st.Cycle}
}
func (h EventHook) OnBeforeLLM(_ context.Context, st *State, m []ChatMessage, schemas []ToolSchema) {
	h.Ch <- Event{Kind: "before_llm", Data: map[string]int{"messages": len(m), "functions": len(schemas), "tokens": st.PromptTokens}}
}
func (h EventHook) OnAfterLLM(_ context.Context, _ *State, r LLMResponse) {
	h.Ch <- Event{Kind: "after_llm", Data: r.FinishReason}
}
func (h EventHook) OnResponse(_ context.Context, _ *State, out ThoughtProcessOutput) {
	h.Ch <- Event{Kind: "response", Data: out}
}
func (h EventHook) OnInvalidResponse(_ context.Context, _ *State, err error) {
	h.Ch <- Event{Kind: "invalid_response", Data: err.Error()}
}
func (h EventHook) OnPluginError(_ context.Context, _ *State, plugin string, err error) {
	h.Ch <- Event{Kind: "plugin_error", Data: map[string]string{"plugin": plugin, "error": err.Error()}}
}
func (h EventHook) OnPluginBudgetExceeded(_ context.Context, _ *State, plugin string, used, cost, limit int) {
	h.Ch <- Event{Kind: "plugin_budget_exceeded", Data: map[string]any{
		"plugin": plugin,
		"used":   used,
		"cost":   cost,
		"limit":  limit,
	}}
}
func (h EventHook) OnCommand(_ context.Context, _ *State, name string, _ CommandArgs) {
	h.Ch <- Event{Kind: "command", Data: name}
}
func (h EventHook) OnCommandResult(_ context.Context, _ *State, name string, result ActionResult) {
	h.Ch <- Event{Kind: "command_result", Data: map[string]string{"command": name, "status": string(result.Status)}}
}
func (h EventHook) OnSummarize(_ context.Context, _ *State, before, after int) {
	h.Ch <- Event{Kind: "summarize", Data: map[string]int{"before": before, "after": after}}
}
