package engine

import (
	"context"
	"fmt"
)

// MessageRole represents the role of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is the provider-agnostic message we pass around.
type ChatMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
	Name    string      `json:"name,omitempty"` // Optional sender name
}

// Validate checks if the ChatMessage is valid.
func (m ChatMessage) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("invalid message role: %s", m.Role)
	}
	return nil
}

// SystemMessage builds a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// Usage holds token accounting returned by providers.
type Usage struct {
	Prompt     int
	Completion int
	Total      int
}

// CommandArgs are the arguments of a command invocation.
type CommandArgs = map[string]any

// FunctionCall is a structured call returned by native function calling.
type FunctionCall struct {
	Name      string
	Arguments CommandArgs

	// ArgumentsErr is set when the raw arguments could not be decoded into
	// an object, e.g. a call cut off by the length limit.
	RawArguments string
	ArgumentsErr error
}

// LLMResponse is a normalized result of one chat call. FunctionCall is set
// when the model answered with a function-call payload.
type LLMResponse struct {
	Assistant    ChatMessage
	FunctionCall *FunctionCall
	Usage        Usage
	FinishReason string // "stop" | "length" | "function_call" | "content_filter"
}

// LLMClient abstracts the chat-completion transport (OpenAI, Anthropic, ...).
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []ChatMessage, functions []ToolSchema, opts ChatOptions) (LLMResponse, error)
}

// ChatOptions keeps knobs forwarded to the SDK.
type ChatOptions struct {
	Temperature     float32
	MaxOutputTokens int
}

// ToolSchema is the JSON schema of a command offered for native function calling.
type ToolSchema struct {
	Name        string
	Description string
	JSONSchema  string // keep as raw JSON string for simplicity
}
