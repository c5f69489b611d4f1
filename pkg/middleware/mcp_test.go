package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// mcpTestRequest wraps ServerRequest for testing
type mcpTestRequest struct {
	mcp.ServerRequest[*mcp.CallToolParamsRaw]
}

func newMCPTestRequest(toolName string) *mcpTestRequest {
	return &mcpTestRequest{
		ServerRequest: mcp.ServerRequest[*mcp.CallToolParamsRaw]{
			Params: &mcp.CallToolParamsRaw{
				Name: toolName,
			},
		},
	}
}

// staticResolver maps tool names to connectors.
type staticResolver map[string]string

func (r staticResolver) ConnectorForTool(name string) (string, bool) {
	id, ok := r[name]
	return id, ok
}

// captureLogs redirects the default logger for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestMCPToolCallMiddleware_Success(t *testing.T) {
	logs := captureLogs(t)
	middleware := MCPToolCallMiddleware(staticResolver{"postgres_query": "postgres"})

	expectedResult := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "success"},
		},
	}

	var seen *CallContext
	next := func(ctx context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		seen = GetCallContext(ctx)
		if seen == nil {
			t.Error("expected call context to be set")
			return expectedResult, nil
		}
		if seen.ToolName != "postgres_query" {
			t.Errorf("expected ToolName 'postgres_query', got %q", seen.ToolName)
		}
		if seen.Connector != "postgres" {
			t.Errorf("expected Connector 'postgres', got %q", seen.Connector)
		}
		if seen.RequestID == "" {
			t.Error("expected RequestID to be set")
		}
		return expectedResult, nil
	}

	handler := middleware(next)
	result, err := handler(context.Background(), "tools/call", newMCPTestRequest("postgres_query"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != expectedResult {
		t.Error("expected result to be passed through")
	}
	if seen == nil || !seen.Success {
		t.Error("expected call to be recorded as successful")
	}
	if !strings.Contains(logs.String(), "tool=postgres_query") {
		t.Errorf("expected tool call to be logged, got %q", logs.String())
	}
}

func TestMCPToolCallMiddleware_ErrorResult(t *testing.T) {
	logs := captureLogs(t)
	middleware := MCPToolCallMiddleware(nil)

	var seen *CallContext
	next := func(ctx context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		seen = GetCallContext(ctx)
		return createErrorResult("Error: connector is not connected"), nil
	}

	_, err := middleware(next)(context.Background(), "tools/call", newMCPTestRequest("postgres_query"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen.Success {
		t.Error("expected IsError result to be recorded as failure")
	}
	if seen.ErrorMessage != "Error: connector is not connected" {
		t.Errorf("ErrorMessage = %q", seen.ErrorMessage)
	}
	if !strings.Contains(logs.String(), "tool call failed") {
		t.Errorf("expected failure to be logged, got %q", logs.String())
	}
}

func TestMCPToolCallMiddleware_HandlerError(t *testing.T) {
	captureLogs(t)
	middleware := MCPToolCallMiddleware(staticResolver{})

	var seen *CallContext
	next := func(ctx context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		seen = GetCallContext(ctx)
		return nil, errors.New("boom")
	}

	_, err := middleware(next)(context.Background(), "tools/call", newMCPTestRequest("unknown_tool"))
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected handler error to pass through, got %v", err)
	}
	if seen.Success || seen.ErrorMessage != "boom" {
		t.Errorf("call context = %+v, want failure with message boom", seen)
	}
	if seen.Connector != "" {
		t.Errorf("Connector = %q, want empty for unresolved tool", seen.Connector)
	}
}

func TestMCPToolCallMiddleware_NonToolsCallPassthrough(t *testing.T) {
	middleware := MCPToolCallMiddleware(nil)

	nextCalled := false
	next := func(ctx context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		nextCalled = true
		if GetCallContext(ctx) != nil {
			t.Error("call context should not be set for non-tools/call methods")
		}
		return &mcp.ListToolsResult{}, nil
	}

	_, err := middleware(next)(context.Background(), "tools/list", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !nextCalled {
		t.Error("expected next handler to be called")
	}
}

func TestMCPToolCallMiddleware_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  mcp.Request
	}{
		{"nil request", nil},
		{"missing tool name", newMCPTestRequest("")},
		{"nil params", &mcpTestRequest{}},
		{"wrong params type", &mcp.ListToolsRequest{Params: &mcp.ListToolsParams{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
				t.Fatal("next should not be called for an invalid request")
				return nil, nil
			}

			result, err := MCPToolCallMiddleware(nil)(next)(context.Background(), "tools/call", tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			toolResult, ok := result.(*mcp.CallToolResult)
			if !ok {
				t.Fatalf("expected CallToolResult, got %T", result)
			}
			if !toolResult.IsError {
				t.Error("expected IsError to be true")
			}
		})
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name    string
		result  mcp.Result
		err     error
		wantOK  bool
		wantMsg string
	}{
		{"success", &mcp.CallToolResult{}, nil, true, ""},
		{"error", nil, errors.New("broken"), false, "broken"},
		{"error result", createErrorResult("bad sql"), nil, false, "bad sql"},
		{"error result without text", &mcp.CallToolResult{IsError: true}, nil, false, "tool returned an error"},
		{"other result type", &mcp.ListToolsResult{}, nil, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := outcome(tt.result, tt.err)
			if ok != tt.wantOK || msg != tt.wantMsg {
				t.Errorf("outcome() = (%v, %q), want (%v, %q)", ok, msg, tt.wantOK, tt.wantMsg)
			}
		})
	}
}
