package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Func executes a command with already-validated arguments.
type Func func(ctx context.Context, args map[string]any) (string, error)

// Metadata categorizes a command for prompt formatting and logging.
type Metadata struct {
	Category string   // e.g., "filesystem", "memory", "control"
	Tags     []string // e.g., ["read-only", "idempotent"]
}

// Command is a named callable the agent may invoke.
type Command struct {
	Name        string
	Description string
	SchemaJSON  string // JSON schema of the args object; empty means "no arguments"
	Fn          Func
	Metadata    Metadata
}

// ErrUnknownCommand is returned when a command name is not registered.
var ErrUnknownCommand = errors.New("unknown command")

// ValidationError indicates that command arguments failed JSON schema validation.
type ValidationError struct {
	Command string
	Errors  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("command %s validation failed: %s", e.Command, strings.Join(e.Errors, "; "))
}

const emptySchema = `{"type":"object","properties":{}}`

// Schema returns the command's JSON schema, defaulting to an empty object schema.
func (c Command) Schema() string {
	if strings.TrimSpace(c.SchemaJSON) == "" {
		return emptySchema
	}
	return c.SchemaJSON
}

// ValidateArgs validates the provided arguments against the command's JSON schema.
func (c Command) ValidateArgs(args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	schemaLoader := gojsonschema.NewStringLoader(c.Schema())
	documentLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var errorMsgs []string
		for _, err := range result.Errors() {
			errorMsgs = append(errorMsgs, err.String())
		}
		return &ValidationError{
			Command: c.Name,
			Errors:  errorMsgs,
		}
	}

	return nil
}
