// engine/hook_logger.go
package engine

import (
	"context"
	"log"
)

type LoggerHook struct{ L *log.Logger }

func (h LoggerHook) OnCycleStart(_ context.Context, st *State) {
	h.L.Printf("cycle=%d model=%s", st.Cycle, st.Model)
}
func (h LoggerHook) OnBeforeLLM(_ context.Context, st *State, msgs []ChatMessage, fns []ToolSchema) {
	h.L.Printf("📤 cycle=%d: %d msgs, %d functions | 💰 prompt tokens=~%d (cumulative=%d)",
		st.Cycle, len(msgs), len(fns), st.PromptTokens, st.Totals.Total)
}
func (h LoggerHook) OnAfterLLM(_ context.Context, st *State, r LLMResponse) {
	h.L.Printf("finish=%s tokens: prompt=%d completion=%d total=%d (cumulative=%d)",
		r.FinishReason, r.Usage.Prompt, r.Usage.Completion, r.Usage.Total, st.Totals.Total)
}
func (h LoggerHook) OnResponse(_ context.Context, st *State, out ThoughtProcessOutput) {
	if out.CommandName == "" {
		h.L.Printf("cycle=%d: no command", st.Cycle)
		return
	}
	h.L.Printf("cycle=%d: command → %s args=%v", st.Cycle, out.CommandName, out.CommandArgs)
}
func (h LoggerHook) OnInvalidResponse(_ context.Context, st *State, err error) {
	h.L.Printf("cycle=%d: %v", st.Cycle, err)
}
func (h LoggerHook) OnPluginError(_ context.Context, _ *State, plugin string, err error) {
	h.L.Printf("plugin %s failed, ignoring its output: %v", plugin, err)
}
func (h LoggerHook) OnPluginBudgetExceeded(_ context.Context, _ *State, plugin string, used, cost, limit int) {
	h.L.Printf("⚠️  plugin %s skipped: %d + %d tokens exceeds send limit %d; no further plugins consulted", plugin, used, cost, limit)
}
func (h LoggerHook) OnCommand(_ context.Context, _ *State, name string, args CommandArgs) {
	h.L.Printf("command → %s args=%v", name, args)
}
func (h LoggerHook) OnCommandResult(_ context.Context, _ *State, name string, result ActionResult) {
	switch result.Status {
	case StatusSuccess:
		preview := result.Output
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		h.L.Printf("command %s result: %s", name, preview)
	case StatusError:
		h.L.Printf("command %s error: %s %s", name, result.Reason, result.Error)
	default:
		h.L.Printf("command %s %s", name, result.Status)
	}
}
func (h LoggerHook) OnSummarize(_ context.Context, _ *State, before, after int) {
	if before == 0 {
		return
	}
	h.L.Printf("history summarized: before=%d after=%d reduction=%.1f%%", before, after, float64(before-after)/float64(before)*100)
}
