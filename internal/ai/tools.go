package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"
)

// ToolHandler executes a read tool. It receives the parsed JSON arguments and
// returns a JSON-encoded result string for the model.
type ToolHandler func(ctx context.Context, params map[string]any) (string, error)

// ToolDefinition describes a single tool the assistant may call while
// answering a question. Every tool is read-only: writes go through the
// extractor or the command endpoint, never through the model.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any // JSON Schema for the tool's input parameters
	Handler     ToolHandler
}

// ToolRegistry holds the tools available for one chat call.
type ToolRegistry struct {
	tools []ToolDefinition
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{}
}

// Register adds a tool to the registry.
func (r *ToolRegistry) Register(t ToolDefinition) {
	r.tools = append(r.tools, t)
}

// Get returns the ToolDefinition for a given tool name, and whether it was found.
func (r *ToolRegistry) Get(name string) (ToolDefinition, bool) {
	if r == nil {
		return ToolDefinition{}, false
	}
	for _, t := range r.tools {
		if t.Name == name {
			return t, true
		}
	}
	return ToolDefinition{}, false
}

// All returns all registered tools.
func (r *ToolRegistry) All() []ToolDefinition {
	if r == nil {
		return nil
	}
	return r.tools
}

// ToOpenAITools converts the registry to the OpenAI Responses API tool format.
func (r *ToolRegistry) ToOpenAITools() []responses.ToolUnionParam {
	all := r.All()
	out := make([]responses.ToolUnionParam, 0, len(all))
	for _, t := range all {
		out = append(out, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}

// Call runs the named tool with raw JSON arguments. Failures are returned as
// a JSON error object so the model can recover instead of aborting the chat.
func (r *ToolRegistry) Call(ctx context.Context, name, arguments string) string {
	t, ok := r.Get(name)
	if !ok || t.Handler == nil {
		return toolError(fmt.Sprintf("unknown tool %q", name))
	}

	params := map[string]any{}
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &params); err != nil {
			return toolError("invalid arguments: " + err.Error())
		}
	}

	out, err := t.Handler(ctx, params)
	if err != nil {
		return toolError(err.Error())
	}
	return out
}

func toolError(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}

// ObjectSchema builds a JSON Schema object with the given properties, all of
// which are required.
func ObjectSchema(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// IntParam reads an integer argument. JSON numbers decode as float64.
func IntParam(params map[string]any, key string) (int, bool) {
	switch v := params[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}
