package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/autoloop/internal/commands"
	"github.com/ChamsBouzaiene/autoloop/internal/prompts"
)

func echoCommand() commands.Command {
	return commands.Command{
		Name:        "echo",
		Description: "Echo text back",
		SchemaJSON:  `{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`,
		Fn: func(_ context.Context, args map[string]any) (string, error) {
			return args["text"].(string), nil
		},
	}
}

func testConfig() AgentConfig {
	cfg := DefaultAgentConfig()
	cfg.SmartLLM = testModel
	cfg.FastLLM = "fast-" + testModel
	cfg.Profile = prompts.AIProfile{Name: "Tester", Role: "an agent that tests things.", Goals: []string{"pass"}}
	return cfg
}

func newTestAgent(t *testing.T, llm LLMClient, configure ...func(*AgentBuilder)) *Agent {
	t.Helper()
	reg, err := commands.NewRegistry(echoCommand())
	require.NoError(t, err)

	b := NewAgentBuilder().
		WithLLM(llm).
		WithRegistry(reg).
		WithConfig(testConfig()).
		WithTokenizer(DefaultTokenizer{}).
		WithHooks(Hooks{}).
		WithLogger(log.New(io.Discard, "", 0))
	for _, fn := range configure {
		fn(b)
	}
	a, err := b.Build()
	require.NoError(t, err)
	return a
}

const echoReply = `{"thoughts":{"text":"echoing","reasoning":"because"},"command":{"name":"echo","args":{"text":"hi"}}}`

func TestAgentBuilder_Validation(t *testing.T) {
	_, err := NewAgentBuilder().Build()
	assert.ErrorContains(t, err, "LLM client not configured")

	cfg := testConfig()
	cfg.SmartLLM = ""
	_, err = NewAgentBuilder().WithLLM(&mockLLM{}).WithConfig(cfg).WithLogger(log.New(io.Discard, "", 0)).Build()
	assert.ErrorContains(t, err, "no model configured")

	_, err = NewAgentBuilder().WithLLM(&mockLLM{}).WithProfile(prompts.AIProfile{}).WithLogger(log.New(io.Discard, "", 0)).Build()
	assert.ErrorContains(t, err, "AI profile has no name")
}

func TestAgentBuilder_Defaults(t *testing.T) {
	a, err := NewAgentBuilder().WithLLM(&mockLLM{}).WithTokenizer(DefaultTokenizer{}).WithLogger(log.New(io.Discard, "", 0)).Build()
	require.NoError(t, err)

	assert.Equal(t, 0, a.Registry().Len())
	assert.True(t, a.History().Empty())
	assert.NotEmpty(t, a.Config().DefaultCycleInstruction)
	n, ok := a.CyclesRemaining()
	assert.True(t, ok)
	assert.Equal(t, 1, n)
	assert.Equal(t, GetModelInfo("gpt-4o").DefaultSendTokenLimit(), a.SendTokenLimit())
}

func TestAgentBuilder_ResumesCycleCount(t *testing.T) {
	llm := &mockLLM{}
	a := newTestAgent(t, llm, func(b *AgentBuilder) { b.WithCycleCount(10) })
	assert.Equal(t, 10, a.CycleCount())

	_, err := a.Think(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 11, a.CycleCount())

	_, err = NewAgentBuilder().WithLLM(llm).WithCycleCount(-1).WithLogger(log.New(io.Discard, "", 0)).Build()
	assert.ErrorContains(t, err, "cycle count must not be negative")
}

func TestThink_EmptyInstructionFailsBeforeNetwork(t *testing.T) {
	llm := &mockLLM{}
	a := newTestAgent(t, llm, func(b *AgentBuilder) {
		cfg := testConfig()
		cfg.DefaultCycleInstruction = ""
		b.WithConfig(cfg)
	})

	_, err := a.Think(context.Background(), "")
	var empty *EmptyInstructionError
	require.True(t, errors.As(err, &empty))
	assert.Equal(t, 0, llm.callCount())
	assert.Equal(t, 0, a.CycleCount())
}

func TestThink_UsesDefaultInstruction(t *testing.T) {
	llm := &mockLLM{responses: []LLMResponse{textResponse(echoReply)}}
	a := newTestAgent(t, llm)

	_, err := a.Think(context.Background(), "")
	require.NoError(t, err)
	msgs := llm.lastCall()
	last := msgs[len(msgs)-1]
	assert.Equal(t, RoleUser, last.Role)
	assert.Equal(t, a.Config().DefaultCycleInstruction, last.Content)
}

func TestThink_PromptLayout(t *testing.T) {
	llm := &mockLLM{responses: []LLMResponse{textResponse(echoReply)}}
	a := newTestAgent(t, llm)

	out, err := a.Think(context.Background(), "do it")
	require.NoError(t, err)
	assert.Equal(t, "echo", out.CommandName)
	assert.Equal(t, CommandArgs{"text": "hi"}, out.CommandArgs)
	assert.Equal(t, "because", out.Thoughts.Reasoning)

	msgs := llm.lastCall()
	require.Len(t, msgs, 3)
	sys, err := a.SystemPrompt()
	require.NoError(t, err)
	assert.Equal(t, SystemMessage(sys), msgs[0])
	assert.Equal(t, SystemMessage(a.Generator().ResponseFormat(false)), msgs[1])
	assert.Equal(t, UserMessage("do it"), msgs[2])
	assert.Nil(t, llm.functions[0])
}

func TestConstructBasePrompt_ProgressFollowsSystemPrompt(t *testing.T) {
	a := newTestAgent(t, &mockLLM{})
	a.RecordResult(ThoughtProcessOutput{CommandName: "echo", CommandArgs: CommandArgs{"text": "x"}}, Success("x"))

	prepend := []ChatMessage{SystemMessage("pre")}
	p, err := a.ConstructBasePrompt(context.Background(), prepend, []ChatMessage{SystemMessage("post")})
	require.NoError(t, err)

	msgs := p.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, RoleSystem, msgs[1].Role)
	assert.Equal(t, "## Progress\n\n"+a.History().FormatSummary(), msgs[1].Content)
	assert.Equal(t, "pre", msgs[2].Content)
	assert.Equal(t, "post", msgs[3].Content)

	// caller slice untouched, no state leaks into the next call
	assert.Len(t, prepend, 1)
	p, err = a.ConstructBasePrompt(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
}

func TestConstructBasePrompt_NoProgressForEmptyHistory(t *testing.T) {
	a := newTestAgent(t, &mockLLM{})
	p, err := a.ConstructBasePrompt(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())
}

func TestThink_PluginsInsertBeforeInstruction(t *testing.T) {
	llm := &mockLLM{responses: []LLMResponse{textResponse(echoReply)}}
	plugin := &stubPlugin{name: "notes", canPlan: true, out: "remember the milk"}
	a := newTestAgent(t, llm, func(b *AgentBuilder) { b.WithPlugins(plugin) })

	_, err := a.Think(context.Background(), "do it")
	require.NoError(t, err)

	msgs := llm.lastCall()
	require.Len(t, msgs, 4)
	assert.Equal(t, SystemMessage("remember the milk"), msgs[2])
	assert.Equal(t, UserMessage("do it"), msgs[3])
	// the plugin saw the prompt with the instruction last
	assert.Equal(t, UserMessage("do it"), plugin.seen[len(plugin.seen)-1])
}

func TestThink_PluginsRespectSendTokenLimit(t *testing.T) {
	llm := &mockLLM{responses: []LLMResponse{textResponse(echoReply)}}
	plugin := &stubPlugin{name: "notes", canPlan: true, out: "remember the milk"}
	hook := &recordingHook{}
	a := newTestAgent(t, llm, func(b *AgentBuilder) {
		cfg := testConfig()
		cfg.SendTokenLimit = 1
		b.WithConfig(cfg).WithPlugins(plugin).WithHooks(Hooks{hook})
	})

	_, err := a.Think(context.Background(), "do it")
	require.NoError(t, err)
	assert.Len(t, llm.lastCall(), 3)
	assert.Equal(t, []string{"notes"}, hook.exceeded)
}

func TestThink_CustomBeforeThink(t *testing.T) {
	llm := &mockLLM{responses: []LLMResponse{textResponse(echoReply)}}
	plugin := &stubPlugin{name: "notes", canPlan: true, out: "unused"}
	var gotUsed int
	a := newTestAgent(t, llm, func(b *AgentBuilder) {
		b.WithPlugins(plugin).WithBeforeThink(func(_ context.Context, _ *Agent, p *Prompt, used int) error {
			gotUsed = used
			return p.InsertBeforeInstruction(SystemMessage("custom"))
		})
	})

	_, err := a.Think(context.Background(), "do it")
	require.NoError(t, err)
	msgs := llm.lastCall()
	assert.Equal(t, "custom", msgs[len(msgs)-2].Content)
	assert.Equal(t, 0, plugin.calls)
	assert.Positive(t, gotUsed)
}

func TestThink_CycleCount(t *testing.T) {
	llm := &mockLLM{responses: []LLMResponse{textResponse(echoReply), textResponse("not json")}}
	a := newTestAgent(t, llm)

	_, err := a.Think(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, 1, a.CycleCount())

	_, err = a.Think(context.Background(), "two")
	var invalid *InvalidAgentResponseError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, 2, a.CycleCount())
	assert.True(t, a.History().Empty())

	llm.err = errors.New("503 service unavailable")
	_, err = a.Think(context.Background(), "three")
	assert.EqualError(t, err, "503 service unavailable")
	assert.Equal(t, 2, a.CycleCount())
}

func TestThink_FunctionCalling(t *testing.T) {
	llm := &mockLLM{responses: []LLMResponse{{
		Assistant:    ChatMessage{Role: RoleAssistant, Content: `{"thoughts":{"text":"t"}}`},
		FunctionCall: &FunctionCall{Name: "echo", Arguments: CommandArgs{"text": "fn"}},
	}}}
	a := newTestAgent(t, llm, func(b *AgentBuilder) {
		cfg := testConfig()
		cfg.UseFunctions = true
		b.WithConfig(cfg)
	})

	out, err := a.Think(context.Background(), "do it")
	require.NoError(t, err)
	assert.Equal(t, "echo", out.CommandName)
	assert.Equal(t, CommandArgs{"text": "fn"}, out.CommandArgs)

	require.Len(t, llm.functions[0], 1)
	assert.Equal(t, "echo", llm.functions[0][0].Name)
	assert.Equal(t, echoCommand().SchemaJSON, llm.functions[0][0].JSONSchema)
	assert.Equal(t, a.Generator().ResponseFormat(true), llm.lastCall()[1].Content)
}

func TestThink_FunctionCallingWithEmptyRegistry(t *testing.T) {
	llm := &mockLLM{responses: []LLMResponse{textResponse(echoReply)}}
	empty, err := commands.NewRegistry()
	require.NoError(t, err)
	a := newTestAgent(t, llm, func(b *AgentBuilder) {
		cfg := testConfig()
		cfg.UseFunctions = true
		b.WithConfig(cfg).WithRegistry(empty)
	})

	_, err = a.Think(context.Background(), "do it")
	require.NoError(t, err)
	assert.Nil(t, llm.functions[0])
}

func TestThink_RegistryChangesReflected(t *testing.T) {
	llm := &mockLLM{}
	reg, err := commands.NewRegistry(echoCommand())
	require.NoError(t, err)
	a := newTestAgent(t, llm, func(b *AgentBuilder) { b.WithRegistry(reg) })

	_, err = a.Think(context.Background(), "do it")
	require.NoError(t, err)
	assert.NotContains(t, llm.lastCall()[0].Content, "shout")

	require.NoError(t, reg.Register(commands.Command{
		Name:        "shout",
		Description: "Shout text",
		Fn:          func(context.Context, map[string]any) (string, error) { return "", nil },
	}))
	_, err = a.Think(context.Background(), "do it")
	require.NoError(t, err)
	assert.Contains(t, llm.lastCall()[0].Content, "shout: Shout text")
}

func TestThink_SelectsModel(t *testing.T) {
	llm := &mockLLM{}
	a := newTestAgent(t, llm, func(b *AgentBuilder) {
		cfg := testConfig()
		cfg.BigBrain = false
		b.WithConfig(cfg)
	})
	_, err := a.Think(context.Background(), "do it")
	require.NoError(t, err)
	assert.Equal(t, []string{"fast-" + testModel}, llm.models)
	assert.Equal(t, "fast-"+testModel, a.LLM().Name)
}

func TestThink_AccumulatesUsage(t *testing.T) {
	resp := textResponse(echoReply)
	resp.Usage = Usage{Prompt: 10, Completion: 5, Total: 15}
	llm := &mockLLM{responses: []LLMResponse{resp}}
	a := newTestAgent(t, llm)

	for i := 0; i < 2; i++ {
		_, err := a.Think(context.Background(), "go")
		require.NoError(t, err)
	}
	assert.Equal(t, Usage{Prompt: 20, Completion: 10, Total: 30}, a.Usage())
}

func TestExecute(t *testing.T) {
	a := newTestAgent(t, &mockLLM{}, func(b *AgentBuilder) {
		cfg := testConfig()
		cfg.CycleBudget = Cycles(3)
		b.WithConfig(cfg)
	})
	ctx := context.Background()

	res, err := a.Execute(ctx, ThoughtProcessOutput{CommandName: "echo", CommandArgs: CommandArgs{"text": "hi"}}, "")
	require.NoError(t, err)
	assert.Equal(t, Success("hi"), res)

	res, err = a.Execute(ctx, ThoughtProcessOutput{CommandName: "echo", CommandArgs: CommandArgs{"text": "hi"}}, "try something else")
	require.NoError(t, err)
	assert.Equal(t, StatusInterrupted, res.Status)
	assert.Equal(t, "try something else", res.Feedback)

	res, err = a.Execute(ctx, ThoughtProcessOutput{CommandName: "nope"}, "")
	require.NoError(t, err)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "unknown command 'nope'", res.Reason)

	n, _ := a.CyclesRemaining()
	assert.Equal(t, 0, n)
	assert.True(t, a.Halted())
	assert.Equal(t, 3, a.History().Len())

	recs := a.History().Records()
	assert.Equal(t, "echo", recs[0].CommandName)
	require.NotNil(t, recs[1].Result)
	assert.Equal(t, StatusInterrupted, recs[1].Result.Status)
}

func TestExecute_InvalidArgsRecordedAsError(t *testing.T) {
	a := newTestAgent(t, &mockLLM{})
	res, err := a.Execute(context.Background(), ThoughtProcessOutput{CommandName: "echo", CommandArgs: CommandArgs{}}, "")
	require.NoError(t, err)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "command 'echo' failed", res.Reason)
	assert.Contains(t, res.Error, "validation failed")
}

func TestExecute_NoCommandIsNoOp(t *testing.T) {
	a := newTestAgent(t, &mockLLM{})
	res, err := a.Execute(context.Background(), ThoughtProcessOutput{Thoughts: Thoughts{Speak: "hello"}}, "")
	require.NoError(t, err)
	assert.Equal(t, Success(""), res)
	assert.Equal(t, 1, a.History().Len())
}

func TestCycleBudget(t *testing.T) {
	a := newTestAgent(t, &mockLLM{}, func(b *AgentBuilder) {
		cfg := testConfig()
		cfg.CycleBudget = nil
		b.WithConfig(cfg)
	})
	_, ok := a.CyclesRemaining()
	assert.False(t, ok)
	assert.False(t, a.Halted())
	a.RecordResult(ThoughtProcessOutput{}, Success(""))
	assert.False(t, a.Halted())

	a.AuthorizeCycles(2)
	n, ok := a.CyclesRemaining()
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	a.AuthorizeCycles(0)
	assert.True(t, a.Halted())

	a.AuthorizeCycles(-1)
	assert.False(t, a.Halted())

	a.AuthorizeCycles(1)
	a.ResetCycleBudget()
	_, ok = a.CyclesRemaining()
	assert.False(t, ok)
}

type fixedSummarizer struct{ calls int }

func (s *fixedSummarizer) Summarize(context.Context, *EpisodicActionHistory, int) (string, error) {
	s.calls++
	return "compressed", nil
}

func TestThink_SummarizesLongHistory(t *testing.T) {
	llm := &mockLLM{}
	sum := &fixedSummarizer{}
	hook := &recordingHook{}
	a := newTestAgent(t, llm, func(b *AgentBuilder) {
		cfg := testConfig()
		cfg.SummaryMaxTokens = 10
		b.WithConfig(cfg).WithSummarizer(sum).WithHooks(Hooks{hook})
	})
	a.RecordResult(ThoughtProcessOutput{CommandName: "echo", CommandArgs: CommandArgs{"text": strings.Repeat("long ", 50)}}, Success(strings.Repeat("out ", 50)))

	_, err := a.Think(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.calls)
	assert.Equal(t, "## Progress\n\ncompressed", llm.lastCall()[1].Content)
	require.Len(t, hook.summarized, 1)
	assert.Greater(t, hook.summarized[0][0], hook.summarized[0][1])
}
