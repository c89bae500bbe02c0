package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ThoughtProcessOutput is the parsed result of one cycle. An empty
// CommandName means the model produced no command and nothing should run.
type ThoughtProcessOutput struct {
	CommandName string      `json:"command_name"`
	CommandArgs CommandArgs `json:"command_args"`
	Thoughts    Thoughts    `json:"thoughts"`
}

// HasCommand reports whether there is something to execute.
func (o ThoughtProcessOutput) HasCommand() bool {
	return o.CommandName != ""
}

// ResponseParser turns a raw model response into a ThoughtProcessOutput.
// Implementations fail with *InvalidAgentResponseError and never retry.
type ResponseParser interface {
	Parse(resp LLMResponse, commandRequired bool) (ThoughtProcessOutput, error)
}

// OneShotParser expects a single JSON reply per cycle, with the command
// either inside the JSON or in a native function call.
type OneShotParser struct{}

// Parse implements ResponseParser.
func (OneShotParser) Parse(resp LLMResponse, commandRequired bool) (ThoughtProcessOutput, error) {
	text := resp.Assistant.Content

	if fc := resp.FunctionCall; fc != nil && fc.Name != "" {
		if fc.ArgumentsErr != nil {
			return ThoughtProcessOutput{}, &InvalidAgentResponseError{
				Reason: "function call arguments are not valid JSON",
				Raw:    fc.RawArguments,
				Err:    fc.ArgumentsErr,
			}
		}
		out := ThoughtProcessOutput{
			CommandName: fc.Name,
			CommandArgs: copyArgs(fc.Arguments),
		}
		if obj, err := decodeObject(text); err == nil {
			out.Thoughts = coerceThoughts(obj["thoughts"])
		} else {
			out.Thoughts.Text = strings.TrimSpace(text)
		}
		return out, nil
	}

	obj, err := decodeObject(text)
	if err != nil {
		return ThoughtProcessOutput{}, err
	}

	rawThoughts, ok := obj["thoughts"]
	if !ok || rawThoughts == nil {
		return ThoughtProcessOutput{}, &InvalidAgentResponseError{Reason: "missing thoughts", Raw: text}
	}
	if _, isObj := rawThoughts.(map[string]any); !isObj {
		return ThoughtProcessOutput{}, &InvalidAgentResponseError{Reason: "thoughts is not an object", Raw: text}
	}
	out := ThoughtProcessOutput{
		CommandArgs: CommandArgs{},
		Thoughts:    coerceThoughts(rawThoughts),
	}

	name, args, reason := extractCommand(obj)
	if reason != "" {
		if commandRequired {
			return ThoughtProcessOutput{}, &InvalidAgentResponseError{Reason: reason, Raw: text}
		}
		return out, nil
	}
	out.CommandName = name
	out.CommandArgs = args
	return out, nil
}

// decodeObject parses text as a JSON object, tolerating a markdown code fence.
func decodeObject(text string) (map[string]any, error) {
	body := stripCodeFence(text)
	if body == "" {
		return nil, &InvalidAgentResponseError{Reason: "empty response", Raw: text}
	}
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, &InvalidAgentResponseError{Reason: "response is not valid JSON", Raw: text, Err: err}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &InvalidAgentResponseError{Reason: fmt.Sprintf("expected a JSON object, got %s", jsonKind(v)), Raw: text}
	}
	return obj, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// drop the opening fence line (``` or ```json)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func extractCommand(obj map[string]any) (string, CommandArgs, string) {
	raw, ok := obj["command"]
	if !ok || raw == nil {
		return "", nil, "missing command"
	}
	cmd, ok := raw.(map[string]any)
	if !ok {
		return "", nil, "command is not an object"
	}
	name, ok := cmd["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return "", nil, "command name is missing or not a string"
	}
	args := CommandArgs{}
	if rawArgs, ok := cmd["args"]; ok && rawArgs != nil {
		m, ok := rawArgs.(map[string]any)
		if !ok {
			return "", nil, "command args is not an object"
		}
		args = m
	}
	return name, args, ""
}

func coerceThoughts(v any) Thoughts {
	m, _ := v.(map[string]any)
	return Thoughts{
		Text:      coerceString(m["text"]),
		Reasoning: coerceString(m["reasoning"]),
		Plan:      coerceString(m["plan"]),
		Criticism: coerceString(m["criticism"]),
		Speak:     coerceString(m["speak"]),
	}
}

// coerceString renders a thoughts field. Lists become "- item" lines.
func coerceString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any:
		lines := make([]string, 0, len(x))
		for _, it := range x {
			lines = append(lines, "- "+coerceString(it))
		}
		return strings.Join(lines, "\n")
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func copyArgs(in CommandArgs) CommandArgs {
	out := make(CommandArgs, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
