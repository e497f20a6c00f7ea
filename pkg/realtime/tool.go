package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// InvokeFunc executes a tool call. It receives the session handle and the
// serialized JSON arguments and returns a textual result. Implementations
// must be safe for concurrent invocation: the same tool can be called again
// before a prior call completes.
type InvokeFunc func(ctx context.Context, h *Handle, args string) (string, error)

// Tool is a named, schema-described capability the remote side may invoke.
// It is declared on the wire as {type, name, description, parameters} and
// executed locally through Invoke.
type Tool struct {
	// Name is the tool name, unique within a session.
	Name string

	// Description describes what the tool does.
	Description string

	// Parameters is the JSON Schema for the tool arguments.
	Parameters *jsonschema.Schema

	// Invoke executes the tool. Nil for tools decoded off the wire.
	Invoke InvokeFunc
}

// toolDecl is the wire form of a tool declaration.
type toolDecl struct {
	Type        string             `json:"type"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitzero"`
	Parameters  *jsonschema.Schema `json:"parameters,omitzero"`
}

// MarshalJSON emits the wire declaration of the tool.
func (t *Tool) MarshalJSON() ([]byte, error) {
	return json.Marshal(toolDecl{
		Type:        "function",
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	})
}

// UnmarshalJSON decodes a wire declaration. The Invoke function is left nil.
func (t *Tool) UnmarshalJSON(data []byte) error {
	var decl toolDecl
	if err := json.Unmarshal(data, &decl); err != nil {
		return err
	}
	t.Name = decl.Name
	t.Description = decl.Description
	t.Parameters = decl.Parameters
	t.Invoke = nil
	return nil
}

// NewTool builds a Tool whose parameter schema is derived from the Args type
// and whose arguments are decoded before fn is invoked. Object schemas are
// closed (additionalProperties: false).
func NewTool[Args any](name, description string, fn func(ctx context.Context, h *Handle, args Args) (string, error)) (*Tool, error) {
	schema, err := jsonschema.For[Args](&jsonschema.ForOptions{})
	if err != nil {
		return nil, fmt.Errorf("realtime: schema for tool %q: %w", name, err)
	}
	if schema.Type == "object" && schema.AdditionalProperties == nil {
		schema.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}}
	}
	return &Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
		Invoke: func(ctx context.Context, h *Handle, raw string) (string, error) {
			var args Args
			if raw != "" {
				if err := json.Unmarshal([]byte(raw), &args); err != nil {
					return "", fmt.Errorf("unmarshal %q error: %w", raw, err)
				}
			}
			return fn(ctx, h, args)
		},
	}, nil
}

// MustNewTool is NewTool that panics on schema derivation failure.
func MustNewTool[Args any](name, description string, fn func(ctx context.Context, h *Handle, args Args) (string, error)) *Tool {
	tool, err := NewTool(name, description, fn)
	if err != nil {
		panic(err)
	}
	return tool
}
