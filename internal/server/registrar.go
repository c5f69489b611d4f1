package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/dbmesh/pkg/connector"
)

// emptyObjectSchema is advertised for operations without an input schema.
var emptyObjectSchema = json.RawMessage(`{"type":"object"}`)

// Registrar registers connector operations, resources and prompts on an MCP
// server. A later registration under an existing name replaces the earlier
// one.
type Registrar struct {
	server *mcp.Server
	warn   bool

	mu        sync.Mutex
	tools     map[string]struct{}
	resources map[string]struct{}
	prompts   map[string]struct{}
}

// RegistrarOption configures a Registrar.
type RegistrarOption func(*Registrar)

// WithDuplicateWarnings controls whether replacing a registration is logged.
// Enabled by default.
func WithDuplicateWarnings(enabled bool) RegistrarOption {
	return func(r *Registrar) {
		r.warn = enabled
	}
}

// NewRegistrar creates a registrar for srv.
func NewRegistrar(srv *mcp.Server, opts ...RegistrarOption) *Registrar {
	r := &Registrar{
		server:    srv,
		warn:      true,
		tools:     make(map[string]struct{}),
		resources: make(map[string]struct{}),
		prompts:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterTool exposes op as an MCP tool.
func (r *Registrar) RegisterTool(op connector.Operation) {
	r.track("tool", op.Name, r.tools)

	schema := op.InputSchema
	if len(schema) == 0 {
		schema = emptyObjectSchema
	}

	r.server.AddTool(&mcp.Tool{
		Name:        op.Name,
		Description: op.Description,
		InputSchema: schema,
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: op.ReadOnly},
	}, toolHandler(op))
}

// RegisterResource exposes res as an MCP resource or resource template.
func (r *Registrar) RegisterResource(res connector.Resource) {
	handler := resourceHandler(res)

	if res.IsTemplate() {
		r.track("resource template", res.URITemplate, r.resources)
		r.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: res.URITemplate,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MIMEType,
		}, handler)
		return
	}

	r.track("resource", res.URI, r.resources)
	r.server.AddResource(&mcp.Resource{
		URI:         res.URI,
		Name:        res.Name,
		Description: res.Description,
		MIMEType:    res.MIMEType,
	}, handler)
}

// RegisterPrompt exposes p as an MCP prompt.
func (r *Registrar) RegisterPrompt(p connector.Prompt) {
	r.track("prompt", p.Name, r.prompts)

	args := make([]*mcp.PromptArgument, 0, len(p.Arguments))
	for _, a := range p.Arguments {
		args = append(args, &mcp.PromptArgument{
			Name:        a.Name,
			Description: a.Description,
			Required:    a.Required,
		})
	}

	r.server.AddPrompt(&mcp.Prompt{
		Name:        p.Name,
		Description: p.Description,
		Arguments:   args,
	}, promptHandler(p))
}

// Registered reports how many distinct tools, resources and prompts were
// registered.
func (r *Registrar) Registered() (tools, resources, prompts int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tools), len(r.resources), len(r.prompts)
}

func (r *Registrar) track(kind, name string, seen map[string]struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := seen[name]; dup && r.warn {
		slog.Warn("replacing existing registration", "kind", kind, "name", name)
	}
	seen[name] = struct{}{}
}

func toolHandler(op connector.Operation) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}

		out, err := op.Call(ctx, args)
		if err != nil {
			slog.Debug("tool call failed", "tool", op.Name, "error", err)
			return errorResult(err), nil
		}

		text, err := renderResult(out)
		if err != nil {
			return errorResult(err), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil
	}
}

// renderResult converts a handler result to text. Strings pass through, all
// other values are encoded as JSON.
func renderResult(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(data), nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
		IsError: true,
	}
}

func resourceHandler(res connector.Resource) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI
		if res.Read == nil {
			return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is for SDK type matching
		}

		text, err := res.Read(ctx, uri)
		if errors.Is(err, connector.ErrResourceNotFound) {
			return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is for SDK type matching
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", uri, err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      uri,
				MIMEType: res.MIMEType,
				Text:     text,
			}},
		}, nil
	}
}

func promptHandler(p connector.Prompt) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := req.Params.Arguments
		for _, a := range p.Arguments {
			if a.Required && args[a.Name] == "" {
				return nil, fmt.Errorf("prompt %s: missing required argument %q", p.Name, a.Name)
			}
		}
		if p.Render == nil {
			return nil, fmt.Errorf("prompt %s has no renderer", p.Name)
		}

		text, err := p.Render(ctx, args)
		if err != nil {
			return nil, fmt.Errorf("rendering prompt %s: %w", p.Name, err)
		}
		return &mcp.GetPromptResult{
			Description: p.Description,
			Messages: []*mcp.PromptMessage{{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			}},
		}, nil
	}
}
