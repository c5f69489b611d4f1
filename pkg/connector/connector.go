// Package connector defines the capability surface every database connector
// implements so the registry can treat all connectors uniformly. This package
// has no internal dependencies so connector implementations and the registry
// can both import it without cycles.
package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotConnected is returned by operations that need a live connection when
// SetupConnection has not succeeded.
var ErrNotConnected = errors.New("connector is not connected")

// ErrResourceNotFound is returned by resource readers when the requested URI
// does not address anything the connector can serve.
var ErrResourceNotFound = errors.New("resource not found")

// Connector is the interface all database connectors must implement.
type Connector interface {
	// SetupConnection establishes the native resource the connector needs.
	// Failures are reported as *ConnectionError.
	SetupConnection(ctx context.Context) error

	// CloseConnection releases anything acquired by SetupConnection. It must
	// not fail when setup was never called or did not succeed.
	CloseConnection() error

	// Tools returns the operations exposed by this connector.
	Tools() []Operation

	// Resources returns addressable data resources. May be empty.
	Resources() []Resource

	// Prompts returns prompt templates. May be empty.
	Prompts() []Prompt
}

// Credentials is a flat key/value bag of connection parameters.
type Credentials map[string]any

// Configurable is implemented by connectors that accept connection parameters
// from the credential store after construction.
type Configurable interface {
	Configure(creds Credentials) error
}

// Handler executes an operation. Args holds the JSON-encoded tool arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Operation is a named, described, callable unit of functionality.
type Operation struct {
	Name        string
	Description string
	// InputSchema is a JSON schema of type object describing the arguments.
	InputSchema json.RawMessage
	ReadOnly    bool
	Handler     Handler
}

// Call marshals args to JSON and invokes the handler.
func (o Operation) Call(ctx context.Context, args any) (any, error) {
	if o.Handler == nil {
		return nil, fmt.Errorf("operation %s has no handler", o.Name)
	}
	raw, ok := args.(json.RawMessage)
	if !ok {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encoding arguments for %s: %w", o.Name, err)
		}
		raw = data
	}
	return o.Handler(ctx, raw)
}

// ResourceReader produces the text content of a resource. For templated
// resources uri is the concrete URI that was requested.
type ResourceReader func(ctx context.Context, uri string) (string, error)

// Resource describes an addressable data resource. Exactly one of URI and
// URITemplate is set.
type Resource struct {
	URI         string
	URITemplate string
	Name        string
	Description string
	MIMEType    string
	Read        ResourceReader
}

// IsTemplate reports whether the resource is addressed by a URI template.
func (r Resource) IsTemplate() bool {
	return r.URITemplate != ""
}

// PromptArgument describes a single prompt argument.
type PromptArgument struct {
	Name        string
	Description string
	Required    bool
}

// PromptRenderer renders a prompt to text from its arguments.
type PromptRenderer func(ctx context.Context, args map[string]string) (string, error)

// Prompt describes a prompt template.
type Prompt struct {
	Name        string
	Description string
	Arguments   []PromptArgument
	Render      PromptRenderer
}

// DecodeArgs unmarshals tool arguments into v. Empty input decodes as an
// empty object.
func DecodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
