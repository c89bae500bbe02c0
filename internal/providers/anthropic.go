package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ChamsBouzaiene/autoloop/internal/engine"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// AnthropicClient implements engine.LLMClient on the Anthropic messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a new Anthropic client for the engine.
func NewAnthropicClient(apiKey, modelName string) (*AnthropicClient, error) {
	client := anthropic.NewClient(apiKey)

	return &AnthropicClient{
		client: client,
		model:  modelName,
	}, nil
}

// Chat implements engine.LLMClient.Chat.
func (c *AnthropicClient) Chat(ctx context.Context, modelName string, messages []engine.ChatMessage, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (engine.LLMResponse, error) {
	if modelName == "" {
		modelName = c.model
	}

	systemParts, anthropicMsgs := toAnthropicMessages(messages)

	var toolDefs []anthropic.ToolDefinition
	for _, ts := range toolSchemas {
		var schemaObj map[string]any
		if err := json.Unmarshal([]byte(ts.JSONSchema), &schemaObj); err != nil {
			return engine.LLMResponse{}, fmt.Errorf("invalid tool schema JSON for %s: %w", ts.Name, err)
		}

		toolDefs = append(toolDefs, anthropic.ToolDefinition{
			Name:        ts.Name,
			Description: ts.Description,
			InputSchema: schemaObj,
		})
	}

	maxTokens := 4096
	if opts.MaxOutputTokens > 0 {
		maxTokens = opts.MaxOutputTokens
	}

	temperature := float32(0.1)
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}

	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(modelName),
		Messages:    anthropicMsgs,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	}
	if len(systemParts) > 0 {
		req.MultiSystem = systemParts
	}
	if len(toolDefs) > 0 {
		req.Tools = toolDefs
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		httpStatus, retryAfter := extractErrorMetadata(err)
		return engine.LLMResponse{}, engine.WrapLLMError(err, httpStatus, retryAfter)
	}

	return fromAnthropicResponse(resp), nil
}

// toAnthropicMessages moves system messages into system parts, in order,
// and merges consecutive turns of the same role, which the API rejects.
func toAnthropicMessages(messages []engine.ChatMessage) ([]anthropic.MessageSystemPart, []anthropic.Message) {
	var systemParts []anthropic.MessageSystemPart
	var out []anthropic.Message

	for _, msg := range messages {
		if msg.Role == engine.RoleSystem {
			systemParts = append(systemParts, anthropic.MessageSystemPart{
				Type: "text",
				Text: msg.Content,
			})
			continue
		}

		role := anthropic.RoleUser
		if msg.Role == engine.RoleAssistant {
			role = anthropic.RoleAssistant
		}
		block := anthropic.NewTextMessageContent(msg.Content)

		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, block)
			continue
		}
		out = append(out, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{block},
		})
	}
	return systemParts, out
}

func fromAnthropicResponse(resp anthropic.MessagesResponse) engine.LLMResponse {
	var textContent string
	var call *engine.FunctionCall

	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if block.Text != nil {
				textContent += *block.Text
			}
		case "tool_use":
			// one command per cycle: the first tool use wins
			if call == nil && block.MessageContentToolUse != nil && block.Name != "" {
				args, err := decodeArguments(block.Input)
				call = &engine.FunctionCall{
					Name:         block.Name,
					Arguments:    args,
					RawArguments: string(block.Input),
					ArgumentsErr: err,
				}
			}
		}
	}

	finishReason := "stop"
	switch {
	case resp.StopReason == "max_tokens":
		finishReason = "length"
	case call != nil:
		finishReason = "function_call"
	}

	return engine.LLMResponse{
		Assistant: engine.ChatMessage{
			Role:    engine.RoleAssistant,
			Content: textContent,
		},
		FunctionCall: call,
		Usage: engine.Usage{
			Prompt:     resp.Usage.InputTokens,
			Completion: resp.Usage.OutputTokens,
			Total:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		FinishReason: finishReason,
	}
}
