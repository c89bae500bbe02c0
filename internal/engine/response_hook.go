package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// ResponseHook prints the agent's thoughts and chosen command.
// Used for displaying cycles in interactive mode.
type ResponseHook struct {
	NopHook
	Name   string
	Writer io.Writer // Defaults to os.Stdout
}

// NewResponseHook creates a response hook that prints to stdout.
func NewResponseHook(agentName string) *ResponseHook {
	return &ResponseHook{Name: agentName, Writer: os.Stdout}
}

// OnResponse prints the thoughts block of a parsed response.
func (h *ResponseHook) OnResponse(_ context.Context, _ *State, out ThoughtProcessOutput) {
	w := h.Writer
	if w == nil {
		w = os.Stdout
	}
	name := strings.ToUpper(h.Name)
	if name == "" {
		name = "AGENT"
	}
	t := out.Thoughts
	if t.Text != "" {
		fmt.Fprintf(w, "%s THOUGHTS: %s\n", name, t.Text)
	}
	if t.Reasoning != "" {
		fmt.Fprintf(w, "REASONING: %s\n", t.Reasoning)
	}
	if t.Plan != "" {
		fmt.Fprintln(w, "PLAN:")
		for _, line := range strings.Split(t.Plan, "\n") {
			line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
			if line != "" {
				fmt.Fprintf(w, "-  %s\n", line)
			}
		}
	}
	if t.Criticism != "" {
		fmt.Fprintf(w, "CRITICISM: %s\n", t.Criticism)
	}
	if t.Speak != "" {
		fmt.Fprintf(w, "SPEAK: %s\n", t.Speak)
	}
	if out.CommandName != "" {
		fmt.Fprintf(w, "NEXT ACTION: COMMAND = %s ARGUMENTS = %v\n", out.CommandName, out.CommandArgs)
	}
}
