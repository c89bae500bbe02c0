// Package engine provides the agent think/execute cycle.
// This file contains error types and LLM error classification.

package engine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// EmptyInstructionError is returned by Think when neither the caller nor the
// agent configuration supplies a cycle instruction.
type EmptyInstructionError struct{}

func (*EmptyInstructionError) Error() string {
	return "no cycle instruction: pass one to Think or configure a default"
}

// InvalidAgentResponseError indicates the model reply could not be turned
// into thoughts and a command.
type InvalidAgentResponseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *InvalidAgentResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid agent response: %s: %v", e.Reason, e.Err)
	}
	return "invalid agent response: " + e.Reason
}

func (e *InvalidAgentResponseError) Unwrap() error {
	return e.Err
}

// PromptOrderError is returned when a prompt is used without its trailing
// cycle instruction.
type PromptOrderError struct {
	Op string
}

func (e *PromptOrderError) Error() string {
	return fmt.Sprintf("prompt %s: no cycle instruction set", e.Op)
}

// RetryClass indicates whether an error should be retried.
type RetryClass string

const (
	RetryClassRetryable    RetryClass = "retryable"     // Definitely retry
	RetryClassMaybe        RetryClass = "maybe"         // Retry with caution (limited attempts)
	RetryClassNonRetryable RetryClass = "non_retryable" // Never retry
)

// EngineError wraps transport errors with classification metadata.
type EngineError struct {
	Err         error
	Class       RetryClass
	HTTPStatus  int    // HTTP status code if applicable
	RetryAfter  string // Retry-After header value if present
	IsRateLimit bool
	IsTimeout   bool
	IsNetwork   bool
	IsAuth      bool
	IsQuota     bool
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("engine error: %s", e.Class)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ClassifyLLMError classifies an error from an LLM provider call.
func ClassifyLLMError(err error) RetryClass {
	if err == nil {
		return RetryClassNonRetryable
	}

	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Class
	}

	errStr := strings.ToLower(err.Error())

	switch {
	// Rate limits and server errors: retry, respecting Retry-After
	case containsAny(errStr, "429", "rate limit", "too many requests"),
		containsAny(errStr, "500", "502", "503", "504", "internal server error", "bad gateway", "service unavailable", "gateway timeout"):
		return RetryClassRetryable

	// Deadline and context-length overflows get a guarded retry
	case containsAny(errStr, "deadline exceeded"),
		containsAny(errStr, "context length", "token limit", "maximum context length"):
		return RetryClassMaybe

	case containsAny(errStr, "timeout", "connection reset", "connection refused", "no such host", "network", "dns", "temporary failure"):
		return RetryClassRetryable

	// Auth, bad requests, quota, and safety refusals are final
	case containsAny(errStr, "401", "403", "unauthorized", "forbidden", "invalid api key", "authentication failed"),
		containsAny(errStr, "400", "bad request", "invalid request", "malformed"),
		containsAny(errStr, "402", "quota", "billing", "payment required"),
		containsAny(errStr, "content filter", "safety", "guardrail", "policy violation"):
		return RetryClassNonRetryable
	}

	return RetryClassNonRetryable
}

// ExtractRetryAfter extracts the Retry-After value from an error.
// Returns 0 if not found or invalid.
func ExtractRetryAfter(err error) time.Duration {
	var engineErr *EngineError
	if errors.As(err, &engineErr) && engineErr.RetryAfter != "" {
		var seconds int
		if _, err := fmt.Sscanf(engineErr.RetryAfter, "%d", &seconds); err == nil {
			return time.Duration(seconds) * time.Second
		}
		if t, err := time.Parse(time.RFC1123, engineErr.RetryAfter); err == nil {
			if d := time.Until(t); d > 0 {
				return d
			}
		}
	}

	errStr := strings.ToLower(err.Error())
	if idx := strings.Index(errStr, "retry after "); idx != -1 {
		var seconds int
		if _, err := fmt.Sscanf(errStr[idx:], "retry after %d", &seconds); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	return 0
}

// WrapLLMError wraps an LLM provider error with classification metadata.
func WrapLLMError(err error, httpStatus int, retryAfter string) error {
	if err == nil {
		return nil
	}

	return &EngineError{
		Err:         err,
		Class:       ClassifyLLMError(err),
		HTTPStatus:  httpStatus,
		RetryAfter:  retryAfter,
		IsRateLimit: httpStatus == http.StatusTooManyRequests,
		IsTimeout:   httpStatus == http.StatusGatewayTimeout || httpStatus == http.StatusRequestTimeout,
		IsNetwork:   httpStatus == 0 || httpStatus >= 500,
		IsAuth:      httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden,
		IsQuota:     httpStatus == http.StatusPaymentRequired,
	}
}

// RetryExhaustedError indicates that all retry attempts have been exhausted.
type RetryExhaustedError struct {
	Err         error
	Attempts    int
	MaxAttempts int
	IsGuarded   bool // True if this was a "maybe" class error with limited retries
}

func (e *RetryExhaustedError) Error() string {
	if e.IsGuarded {
		return fmt.Sprintf("guarded retries exhausted after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// IsRetryExhausted checks if an error is a RetryExhaustedError.
func IsRetryExhausted(err error) bool {
	var retryExhausted *RetryExhaustedError
	return errors.As(err, &retryExhausted)
}
