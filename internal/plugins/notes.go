package plugins

import (
	"context"
	"fmt"
	"os"
	"strings"

	units "github.com/docker/go-units"

	"github.com/ChamsBouzaiene/autoloop/internal/engine"
	"github.com/ChamsBouzaiene/autoloop/internal/prompts"
)

// DefaultNotesLimit caps how much of the notes file is shown.
const DefaultNotesLimit = "8KiB"

// Notes re-reads a user-maintained notes file every cycle, so edits made
// while the agent runs are picked up on the next cycle. A missing file
// contributes nothing.
type Notes struct {
	Path     string
	MaxBytes int64
}

var _ engine.Plugin = (*Notes)(nil)

// NewNotes creates a notes plugin. limit is a human-readable size such as
// "8KiB"; empty means DefaultNotesLimit.
func NewNotes(path, limit string) (*Notes, error) {
	if limit == "" {
		limit = DefaultNotesLimit
	}
	n, err := units.RAMInBytes(limit)
	if err != nil {
		return nil, fmt.Errorf("invalid notes limit %q: %w", limit, err)
	}
	if n <= 0 {
		return nil, fmt.Errorf("invalid notes limit %q: must be positive", limit)
	}
	return &Notes{Path: path, MaxBytes: n}, nil
}

func (p *Notes) Name() string              { return "notes" }
func (p *Notes) CanHandleOnPlanning() bool { return p.Path != "" }

// OnPlanning implements engine.Plugin.
func (p *Notes) OnPlanning(_ context.Context, _ *prompts.Generator, _ []engine.ChatMessage) (string, error) {
	data, err := os.ReadFile(p.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read notes: %w", err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", nil
	}
	if p.MaxBytes > 0 && int64(len(content)) > p.MaxBytes {
		content = strings.ToValidUTF8(content[:p.MaxBytes], "") + "\n[... notes truncated at " + units.BytesSize(float64(p.MaxBytes)) + "]"
	}
	return "# Notes from the user\n\n" + content, nil
}
