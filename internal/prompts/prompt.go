package prompts

// PromptVersion represents a version identifier for prompts.
type PromptVersion string

const (
	// PromptV1 is the first version of prompts.
	PromptV1 PromptVersion = "1.0.0"
)

// Template IDs registered by this package.
const (
	// PersonaID introduces the agent; variables: name, role.
	PersonaID = "persona"
	// TriggeringID is the default cycle instruction.
	TriggeringID = "triggering"
	// HistorySummaryID instructs a model to compress the action history.
	HistorySummaryID = "history_summary"
)

// Prompt represents a versioned prompt template with metadata.
type Prompt struct {
	ID          string        // Unique identifier (e.g., "persona", "triggering")
	Version     PromptVersion // Version of this prompt
	Content     string        // Template text; {{var}} placeholders are substituted by PromptBuilder
	Description string        // Human-readable description
	Tags        []string
	Deprecated  bool // True if this version is deprecated
}
