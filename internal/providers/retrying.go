package providers

import (
	"context"
	"log"
	"time"

	"github.com/ChamsBouzaiene/autoloop/internal/engine"
)

// RetryingClient wraps an LLMClient with backoff on transient failures.
// Errors that survive the policy are returned unchanged to the agent.
type RetryingClient struct {
	Inner  engine.LLMClient
	Policy engine.RetryPolicy
	Logger *log.Logger // nil = silent
}

// WithRetry wraps c with the default retry policy.
func WithRetry(c engine.LLMClient, logger *log.Logger) *RetryingClient {
	return &RetryingClient{Inner: c, Policy: engine.DefaultRetryPolicy(), Logger: logger}
}

// Chat implements engine.LLMClient.
func (r *RetryingClient) Chat(ctx context.Context, model string, messages []engine.ChatMessage, functions []engine.ToolSchema, opts engine.ChatOptions) (engine.LLMResponse, error) {
	return engine.RetryLLMCall(ctx, r.Policy, r.Inner, model, messages, functions, opts,
		func(attempt int, delay time.Duration, err error) {
			if r.Logger != nil {
				r.Logger.Printf("🔄 retry %d/%d in %v: %v", attempt, r.Policy.MaxRetries, delay.Round(time.Millisecond), err)
			}
		})
}
