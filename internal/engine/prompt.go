package engine

// Prompt is the ordered message sequence sent for one cycle. The cycle
// instruction is held apart from the body so it always stays last: content
// added after construction can only go into the body, in front of it.
type Prompt struct {
	body        []ChatMessage
	instruction *ChatMessage
}

// NewPrompt creates a prompt with the given body and no instruction.
func NewPrompt(body ...ChatMessage) *Prompt {
	return &Prompt{body: append([]ChatMessage(nil), body...)}
}

// Append adds messages to the end of the body.
func (p *Prompt) Append(msgs ...ChatMessage) {
	p.body = append(p.body, msgs...)
}

// SetInstruction sets (or replaces) the trailing cycle instruction.
func (p *Prompt) SetInstruction(m ChatMessage) {
	p.instruction = &m
}

// Instruction returns the trailing instruction, if set.
func (p *Prompt) Instruction() (ChatMessage, bool) {
	if p.instruction == nil {
		return ChatMessage{}, false
	}
	return *p.instruction, true
}

// InsertBeforeInstruction adds m directly in front of the instruction.
func (p *Prompt) InsertBeforeInstruction(m ChatMessage) error {
	if p.instruction == nil {
		return &PromptOrderError{Op: "insert"}
	}
	p.body = append(p.body, m)
	return nil
}

// Len returns the total number of messages.
func (p *Prompt) Len() int {
	if p.instruction == nil {
		return len(p.body)
	}
	return len(p.body) + 1
}

// Messages returns a fresh copy of body followed by the instruction.
// Callers may modify the result freely.
func (p *Prompt) Messages() []ChatMessage {
	out := make([]ChatMessage, 0, p.Len())
	out = append(out, p.body...)
	if p.instruction != nil {
		out = append(out, *p.instruction)
	}
	return out
}

// TokenLength counts the tokens of every message.
func (p *Prompt) TokenLength(tokenizer Tokenizer, model string) (int, error) {
	return CountTokensForMessages(tokenizer, p.Messages(), model)
}
