// Package builtin provides the commands every agent starts with.
package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/autoloop/internal/commands"
	"github.com/ChamsBouzaiene/autoloop/internal/memory"
)

// FinishName is the command an agent invokes to end its run.
const FinishName = "finish"

// Finish returns the command that signals the task is complete. Callers
// stop the loop after executing it.
func Finish() commands.Command {
	return commands.Command{
		Name:        FinishName,
		Description: "Use this to shut down once you have accomplished all of your goals, or when there are insurmountable problems that make it impossible for you to finish your task",
		SchemaJSON: `{"type":"object","properties":{
			"reason":{"type":"string","description":"A summary to the user of how the goals were accomplished"}
		},"required":["reason"]}`,
		Fn: func(_ context.Context, args map[string]any) (string, error) {
			return stringArg(args, "reason"), nil
		},
		Metadata: commands.Metadata{Category: "control"},
	}
}

// MemoryAdd returns a command that stores text in long-term memory.
func MemoryAdd(p memory.Provider) commands.Command {
	return commands.Command{
		Name:        "memory_add",
		Description: "Save an important fact to long-term memory",
		SchemaJSON: `{"type":"object","properties":{
			"text":{"type":"string","description":"The fact to remember"}
		},"required":["text"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			id, err := p.Add(ctx, stringArg(args, "text"))
			if err != nil {
				return "", err
			}
			return "Saved to memory with id " + id, nil
		},
		Metadata: commands.Metadata{Category: "memory"},
	}
}

// MemorySearch returns a command that retrieves relevant memories.
func MemorySearch(p memory.Provider) commands.Command {
	return commands.Command{
		Name:        "memory_search",
		Description: "Search long-term memory for facts relevant to a query",
		SchemaJSON: `{"type":"object","properties":{
			"query":{"type":"string","description":"What to look for"},
			"k":{"type":"integer","minimum":1,"description":"Maximum number of results. Default: 5"}
		},"required":["query"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			hits, err := p.GetRelevant(ctx, stringArg(args, "query"), intArg(args, "k", memory.DefaultRelevantCount))
			if err != nil {
				return "", err
			}
			if len(hits) == 0 {
				return "No relevant memories.", nil
			}
			var b strings.Builder
			for i, h := range hits {
				fmt.Fprintf(&b, "%d. %s\n", i+1, h)
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
		Metadata: commands.Metadata{Category: "memory", Tags: []string{"read-only"}},
	}
}

// Defaults returns the standard command set rooted at workspace. Memory
// commands are included only when mem is non-nil.
func Defaults(workspace string, mem memory.Provider) ([]commands.Command, error) {
	read, err := ReadFile(workspace, DefaultMaxReadSize)
	if err != nil {
		return nil, err
	}
	cmds := []commands.Command{
		Finish(),
		read,
		WriteFile(workspace),
		ListFiles(workspace),
	}
	if mem != nil {
		cmds = append(cmds, MemoryAdd(mem), MemorySearch(mem))
	}
	return cmds, nil
}
