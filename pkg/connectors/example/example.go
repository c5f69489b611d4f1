// Package example provides a demonstration connector with no backing
// database. Its lifecycle always succeeds and it exposes one arithmetic tool.
package example

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/txn2/dbmesh/pkg/connector"
)

const greetingTemplate = "greeting://{name}"

var addSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"a": {"type": "integer", "description": "First addend"},
		"b": {"type": "integer", "description": "Second addend"}
	},
	"required": ["a", "b"]
}`)

// AddInput holds the arguments of the add tool.
type AddInput struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Connector is the example connector.
type Connector struct{}

var _ connector.Connector = (*Connector)(nil)

// New creates an example connector.
func New() *Connector {
	return &Connector{}
}

// SetupConnection always succeeds.
func (*Connector) SetupConnection(_ context.Context) error {
	return nil
}

// CloseConnection always succeeds.
func (*Connector) CloseConnection() error {
	return nil
}

// Add returns a + b.
func Add(a, b int) int {
	return a + b
}

// Tools returns the add operation.
func (*Connector) Tools() []connector.Operation {
	return []connector.Operation{
		{
			Name:        "add",
			Description: "Add two numbers",
			InputSchema: addSchema,
			ReadOnly:    true,
			Handler:     handleAdd,
		},
	}
}

func handleAdd(_ context.Context, args json.RawMessage) (any, error) {
	var in AddInput
	if err := connector.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	return Add(in.A, in.B), nil
}

// Resources returns the greeting template.
func (*Connector) Resources() []connector.Resource {
	return []connector.Resource{
		{
			URITemplate: greetingTemplate,
			Name:        "greeting",
			Description: "Get a personalized greeting",
			MIMEType:    "text/plain",
			Read:        readGreeting,
		},
	}
}

func readGreeting(_ context.Context, uri string) (string, error) {
	name, ok := strings.CutPrefix(uri, "greeting://")
	if !ok || name == "" {
		return "", fmt.Errorf("%w: %q does not match %s", connector.ErrResourceNotFound, uri, greetingTemplate)
	}
	return fmt.Sprintf("Hello, %s!", name), nil
}

// Prompts returns nothing.
func (*Connector) Prompts() []connector.Prompt {
	return nil
}
