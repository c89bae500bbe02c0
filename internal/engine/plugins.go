package engine

import (
	"context"
	"fmt"

	"github.com/ChamsBouzaiene/autoloop/internal/prompts"
)

// Plugin contributes planning context to a cycle.
type Plugin interface {
	Name() string
	CanHandleOnPlanning() bool
	// OnPlanning returns a text block to add to the prompt, or "" for none.
	// raw is a private copy of the prompt built so far.
	OnPlanning(ctx context.Context, gen *prompts.Generator, raw []ChatMessage) (string, error)
}

// BeforeThinkFunc runs after the prompt is built and before the completion
// call. It may only add messages in front of the instruction. used is the
// token count of the prompt so far.
type BeforeThinkFunc func(ctx context.Context, a *Agent, p *Prompt, used int) error

// PlanningInput carries everything the planning hook needs for one cycle.
type PlanningInput struct {
	Plugins        []Plugin
	Generator      *prompts.Generator
	Prompt         *Prompt
	Tokenizer      Tokenizer
	Model          string
	Used           int // tokens already in Prompt
	SendTokenLimit int
	Hooks          Hook
	State          *State
}

// PlanningResult reports what the hook did.
type PlanningResult struct {
	Used     int      // tokens in the prompt after insertion
	Inserted []string // plugins whose output was inserted
	Stopped  string   // plugin whose output would have exceeded the limit
}

// RunPlanningPlugins consults plugins in order and inserts each non-empty
// block as a system message directly before the instruction. The first block
// that would push the prompt over SendTokenLimit ends the hook: no further
// plugin is consulted.
func RunPlanningPlugins(ctx context.Context, in PlanningInput) (PlanningResult, error) {
	res := PlanningResult{Used: in.Used}
	hooks := in.Hooks
	if hooks == nil {
		hooks = NopHook{}
	}
	st := in.State
	if st == nil {
		st = &State{Model: in.Model}
	}
	tokenizer := in.Tokenizer
	if tokenizer == nil {
		tokenizer = DefaultTokenizer{}
	}
	if _, ok := in.Prompt.Instruction(); !ok {
		return res, &PromptOrderError{Op: "plan"}
	}

	for _, pl := range in.Plugins {
		if pl == nil || !pl.CanHandleOnPlanning() {
			continue
		}

		text, err := callPlugin(ctx, pl, in.Generator, in.Prompt.Messages())
		if err != nil {
			hooks.OnPluginError(ctx, st, pl.Name(), err)
			continue
		}
		if text == "" {
			continue
		}

		msg := SystemMessage(text)
		cost, err := CountMessageTokens(tokenizer, msg, in.Model)
		if err != nil {
			return res, fmt.Errorf("failed to count plugin tokens: %w", err)
		}
		if res.Used+cost > in.SendTokenLimit {
			hooks.OnPluginBudgetExceeded(ctx, st, pl.Name(), res.Used, cost, in.SendTokenLimit)
			res.Stopped = pl.Name()
			return res, nil
		}
		if err := in.Prompt.InsertBeforeInstruction(msg); err != nil {
			return res, err
		}
		res.Used += cost
		res.Inserted = append(res.Inserted, pl.Name())
	}
	return res, nil
}

// callPlugin isolates a plugin so a panic counts as a failure.
func callPlugin(ctx context.Context, pl Plugin, gen *prompts.Generator, raw []ChatMessage) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("plugin panicked: %v", r)
		}
	}()
	return pl.OnPlanning(ctx, gen, raw)
}

// PluginPlanning is the default BeforeThinkFunc.
func PluginPlanning(ctx context.Context, a *Agent, p *Prompt, used int) error {
	_, err := RunPlanningPlugins(ctx, PlanningInput{
		Plugins:        a.plugins,
		Generator:      a.generator,
		Prompt:         p,
		Tokenizer:      a.tokenizer,
		Model:          a.model(),
		Used:           used,
		SendTokenLimit: a.SendTokenLimit(),
		Hooks:          a.hooks,
		State:          a.state,
	})
	return err
}
