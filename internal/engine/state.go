package engine

// State is the per-cycle view handed to hooks.
type State struct {
	Cycle        int    // cycle_count when the cycle started (0-based)
	Model        string // LLM model name
	Instruction  string // resolved cycle instruction
	PromptTokens int    // tokens of the prompt sent, after plugins
	Totals       Usage  // accumulated token usage across all cycles
}
