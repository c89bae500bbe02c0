package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ChamsBouzaiene/autoloop/internal/engine"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAIClient implements engine.LLMClient on the OpenAI chat completions
// API and any endpoint compatible with it.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	baseURL string
}

// NewOpenAIClient creates a new OpenAI client for the engine.
func NewOpenAIClient(apiKey, modelName, baseURL string) (*OpenAIClient, error) {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	client := openai.NewClientWithConfig(config)

	return &OpenAIClient{
		client:  client,
		model:   modelName,
		baseURL: baseURL,
	}, nil
}

// Chat implements engine.LLMClient.Chat.
func (c *OpenAIClient) Chat(ctx context.Context, modelName string, messages []engine.ChatMessage, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (engine.LLMResponse, error) {
	if modelName == "" {
		modelName = c.model
	}

	tools, err := toOpenAITools(toolSchemas)
	if err != nil {
		return engine.LLMResponse{}, err
	}

	req := openai.ChatCompletionRequest{
		Model:    modelName,
		Messages: toOpenAIMessages(messages),
	}

	// Add tools if present
	if len(tools) > 0 {
		req.Tools = tools
		// the model decides whether to call a function or answer in text
		req.ToolChoice = "auto"
	}

	// Apply options
	if opts.MaxOutputTokens > 0 {
		req.MaxTokens = opts.MaxOutputTokens
	}
	if opts.Temperature > 0 {
		req.Temperature = &opts.Temperature
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		httpStatus, retryAfter := extractErrorMetadata(err)
		return engine.LLMResponse{}, engine.WrapLLMError(err, httpStatus, retryAfter)
	}

	return fromOpenAIResponse(resp)
}

// toOpenAIMessages keeps every message in order, system messages included.
func toOpenAIMessages(messages []engine.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		var role string
		switch msg.Role {
		case engine.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case engine.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		default:
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
			Name:    msg.Name,
		})
	}
	return out
}

func toOpenAITools(toolSchemas []engine.ToolSchema) ([]openai.Tool, error) {
	var tools []openai.Tool
	for _, ts := range toolSchemas {
		var schemaObj map[string]any
		if err := json.Unmarshal([]byte(ts.JSONSchema), &schemaObj); err != nil {
			return nil, fmt.Errorf("invalid tool schema JSON for %s: %w", ts.Name, err)
		}

		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ts.Name,
				Description: ts.Description,
				Parameters:  schemaObj,
			},
		})
	}
	return tools, nil
}

// fromOpenAIResponse normalizes the first choice. Only the first tool call
// is kept: one cycle runs one command.
func fromOpenAIResponse(resp openai.ChatCompletionResponse) (engine.LLMResponse, error) {
	if len(resp.Choices) == 0 {
		return engine.LLMResponse{}, fmt.Errorf("empty response from OpenAI")
	}
	choice := resp.Choices[0]

	out := engine.LLMResponse{
		Assistant: engine.ChatMessage{
			Role:    engine.RoleAssistant,
			Content: choice.Message.Content,
		},
		Usage: engine.Usage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
			Total:      resp.Usage.TotalTokens,
		},
		FinishReason: "stop",
	}

	if len(choice.Message.ToolCalls) > 0 {
		fn := choice.Message.ToolCalls[0].Function
		args, err := decodeArguments([]byte(fn.Arguments))
		out.FunctionCall = &engine.FunctionCall{
			Name:         fn.Name,
			Arguments:    args,
			RawArguments: fn.Arguments,
			ArgumentsErr: err,
		}
	}

	switch {
	case choice.FinishReason == openai.FinishReasonLength:
		out.FinishReason = "length"
	case choice.FinishReason == openai.FinishReasonContentFilter:
		out.FinishReason = "content_filter"
	case out.FunctionCall != nil:
		out.FinishReason = "function_call"
	}
	return out, nil
}

// decodeArguments parses function-call arguments. Empty input means no
// arguments; anything else must be a JSON object.
func decodeArguments(raw []byte) (engine.CommandArgs, error) {
	if strings.TrimSpace(string(raw)) == "" {
		return engine.CommandArgs{}, nil
	}
	var args engine.CommandArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("decode function arguments: %w", err)
	}
	if args == nil {
		return nil, fmt.Errorf("decode function arguments: expected an object, got null")
	}
	return args, nil
}

// extractErrorMetadata extracts HTTP status code and Retry-After header from an error.
func extractErrorMetadata(err error) (int, string) {
	if err == nil {
		return 0, ""
	}

	errStr := err.Error()
	var httpStatus int
	var retryAfter string

	// Common patterns: "429", "status code 429", "HTTP 429", etc.
	switch {
	case strings.Contains(errStr, "429"):
		httpStatus = http.StatusTooManyRequests
	case strings.Contains(errStr, "500"):
		httpStatus = http.StatusInternalServerError
	case strings.Contains(errStr, "502"):
		httpStatus = http.StatusBadGateway
	case strings.Contains(errStr, "503"):
		httpStatus = http.StatusServiceUnavailable
	case strings.Contains(errStr, "504"):
		httpStatus = http.StatusGatewayTimeout
	case strings.Contains(errStr, "401"):
		httpStatus = http.StatusUnauthorized
	case strings.Contains(errStr, "403"):
		httpStatus = http.StatusForbidden
	case strings.Contains(errStr, "400"):
		httpStatus = http.StatusBadRequest
	case strings.Contains(errStr, "402"):
		httpStatus = http.StatusPaymentRequired
	}

	// "Retry-After: 60", "retry after 60", etc.
	lower := strings.ToLower(errStr)
	if idx := strings.Index(lower, "retry-after"); idx != -1 {
		parts := strings.Fields(strings.TrimLeft(errStr[idx+len("retry-after"):], ": "))
		if len(parts) > 0 {
			retryAfter = parts[0]
		}
	} else if idx := strings.Index(lower, "retry after"); idx != -1 {
		parts := strings.Fields(errStr[idx+len("retry after"):])
		if len(parts) > 0 {
			retryAfter = parts[0]
		}
	}

	return httpStatus, retryAfter
}
