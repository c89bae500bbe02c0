package engine

import (
	"context"
	"sync"

	"github.com/ChamsBouzaiene/autoloop/internal/prompts"
)

// mockLLM replays scripted responses and records every call.
type mockLLM struct {
	mu        sync.Mutex
	responses []LLMResponse
	err       error
	calls     [][]ChatMessage
	functions [][]ToolSchema
	models    []string
}

func (m *mockLLM) Chat(_ context.Context, model string, messages []ChatMessage, functions []ToolSchema, _ ChatOptions) (LLMResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, messages)
	m.functions = append(m.functions, functions)
	m.models = append(m.models, model)
	if m.err != nil {
		return LLMResponse{}, m.err
	}
	if len(m.responses) == 0 {
		return textResponse(`{"thoughts":{"text":"idle"},"command":{"name":"echo","args":{"text":"idle"}}}`), nil
	}
	r := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return r, nil
}

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockLLM) lastCall() []ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

// stubPlugin returns a fixed block, an error, or panics.
type stubPlugin struct {
	name    string
	canPlan bool
	out     string
	err     error
	panics  bool
	calls   int
	seen    []ChatMessage
}

func (p *stubPlugin) Name() string              { return p.name }
func (p *stubPlugin) CanHandleOnPlanning() bool { return p.canPlan }

func (p *stubPlugin) OnPlanning(_ context.Context, _ *prompts.Generator, raw []ChatMessage) (string, error) {
	p.calls++
	p.seen = raw
	if p.panics {
		panic("boom")
	}
	return p.out, p.err
}

// recordingHook captures plugin notifications.
type recordingHook struct {
	NopHook
	pluginErrors []string
	exceeded     []string
	summarized   [][2]int
}

func (h *recordingHook) OnPluginError(_ context.Context, _ *State, plugin string, _ error) {
	h.pluginErrors = append(h.pluginErrors, plugin)
}

func (h *recordingHook) OnPluginBudgetExceeded(_ context.Context, _ *State, plugin string, _, _, _ int) {
	h.exceeded = append(h.exceeded, plugin)
}

func (h *recordingHook) OnSummarize(_ context.Context, _ *State, before, after int) {
	h.summarized = append(h.summarized, [2]int{before, after})
}
