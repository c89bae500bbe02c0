package engine

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseHook_PrintsThoughts(t *testing.T) {
	var buf bytes.Buffer
	h := &ResponseHook{Name: "Tester", Writer: &buf}

	h.OnResponse(context.Background(), &State{}, ThoughtProcessOutput{
		CommandName: "echo",
		CommandArgs: CommandArgs{"text": "hi"},
		Thoughts: Thoughts{
			Text:      "thinking",
			Reasoning: "because",
			Plan:      "- first\n- second",
			Criticism: "be faster",
			Speak:     "hello",
		},
	})

	assert.Equal(t, "TESTER THOUGHTS: thinking\n"+
		"REASONING: because\n"+
		"PLAN:\n"+
		"-  first\n"+
		"-  second\n"+
		"CRITICISM: be faster\n"+
		"SPEAK: hello\n"+
		"NEXT ACTION: COMMAND = echo ARGUMENTS = map[text:hi]\n", buf.String())
}

func TestResponseHook_SkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	h := &ResponseHook{Writer: &buf}
	h.OnResponse(context.Background(), &State{}, ThoughtProcessOutput{Thoughts: Thoughts{Speak: "hi"}})
	assert.Equal(t, "SPEAK: hi\n", buf.String())
}

func TestEventHook_ForwardsCycleEvents(t *testing.T) {
	ch := make(chan Event, 16)
	hooks := Hooks{EventHook{Ch: ch}, NopHook{}}
	ctx := context.Background()
	st := &State{Cycle: 2, PromptTokens: 42}

	hooks.OnCycleStart(ctx, st)
	hooks.OnBeforeLLM(ctx, st, []ChatMessage{UserMessage("x")}, nil)
	hooks.OnAfterLLM(ctx, st, LLMResponse{FinishReason: "stop"})
	hooks.OnPluginError(ctx, st, "notes", errors.New("bad"))
	hooks.OnCommandResult(ctx, st, "echo", Success("hi"))
	close(ch)

	var kinds []string
	var events []Event
	for ev := range ch {
		kinds = append(kinds, ev.Kind)
		events = append(events, ev)
	}
	require.Equal(t, []string{"cycle_start", "before_llm", "after_llm", "plugin_error", "command_result"}, kinds)
	assert.Equal(t, 2, events[0].Data)
	assert.Equal(t, map[string]int{"messages": 1, "functions": 0, "tokens": 42}, events[1].Data)
	assert.Equal(t, map[string]string{"plugin": "notes", "error": "bad"}, events[3].Data)
	assert.Equal(t, map[string]string{"command": "echo", "status": "success"}, events[4].Data)
}

func TestLoggerHook(t *testing.T) {
	var buf bytes.Buffer
	h := LoggerHook{L: log.New(&buf, "", 0)}
	ctx := context.Background()
	st := &State{Cycle: 1, Model: testModel}

	h.OnCycleStart(ctx, st)
	h.OnPluginBudgetExceeded(ctx, st, "notes", 90, 20, 100)
	h.OnCommandResult(ctx, st, "echo", Failure("command 'echo' failed", errors.New("bad")))
	h.OnSummarize(ctx, st, 200, 50)
	h.OnSummarize(ctx, st, 0, 0)

	out := buf.String()
	assert.Contains(t, out, "cycle=1 model=test-model")
	assert.Contains(t, out, "plugin notes skipped: 90 + 20 tokens exceeds send limit 100")
	assert.Contains(t, out, "command echo error: command 'echo' failed bad")
	assert.Contains(t, out, "before=200 after=50 reduction=75.0%")
	assert.Equal(t, 4, bytes.Count(buf.Bytes(), []byte("\n")))
}
