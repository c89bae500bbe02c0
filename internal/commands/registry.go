package commands

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry maps command names to commands. It is safe for concurrent use;
// commands may be registered or removed while an agent is running and the
// next system prompt reflects the change.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates a registry pre-populated with cmds.
func NewRegistry(cmds ...Command) (*Registry, error) {
	r := &Registry{commands: make(map[string]Command)}
	for _, c := range cmds {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces a command.
func (r *Registry) Register(c Command) error {
	if c.Name == "" {
		return fmt.Errorf("command name is required")
	}
	if c.Fn == nil {
		return fmt.Errorf("command %s has no implementation", c.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commands == nil {
		r.commands = make(map[string]Command)
	}
	r.commands[c.Name] = c
	return nil
}

// Unregister removes a command. It reports whether the command existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.commands[name]
	delete(r.commands, name)
	return ok
}

// Get looks up a command by name.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commands[name]
	return c, ok
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Commands returns a snapshot of all commands sorted by name.
func (r *Registry) Commands() []Command {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	out := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Execute validates args and runs the named command.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	c, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := c.ValidateArgs(args); err != nil {
		return "", err
	}
	return c.Fn(ctx, args)
}
