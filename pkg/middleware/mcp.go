package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const methodToolsCall = "tools/call"

// ConnectorResolver maps a tool name to the connector that exposes it.
type ConnectorResolver interface {
	ConnectorForTool(toolName string) (string, bool)
}

// MCPToolCallMiddleware creates MCP protocol-level middleware that attaches a
// CallContext to every tools/call request and logs the outcome.
//
// Requests without a tool name are rejected with an error result before they
// reach the handler. Other methods pass through untouched.
func MCPToolCallMiddleware(resolver ConnectorResolver) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodToolsCall {
				return next(ctx, method, req)
			}

			toolName, err := extractToolName(req)
			if err != nil {
				return createErrorResult(fmt.Sprintf("invalid request: %v", err)), nil
			}

			cc := NewCallContext(uuid.NewString())
			cc.ToolName = toolName
			cc.SessionID = sessionID(req)
			if resolver != nil {
				cc.Connector, _ = resolver.ConnectorForTool(toolName)
			}
			ctx = WithCallContext(ctx, cc)

			result, err := next(ctx, method, req)

			cc.Duration = time.Since(cc.StartTime)
			cc.Success, cc.ErrorMessage = outcome(result, err)
			logToolCall(ctx, cc)

			return result, err
		}
	}
}

// extractToolName extracts the tool name from a tools/call request.
func extractToolName(req mcp.Request) (string, error) {
	if req == nil {
		return "", errors.New("missing params")
	}
	params := req.GetParams()
	if params == nil {
		return "", errors.New("missing params")
	}

	callParams, ok := params.(*mcp.CallToolParamsRaw)
	if !ok {
		return "", fmt.Errorf("unexpected params type: %T", params)
	}

	// A typed nil passes the assertion above.
	if callParams == nil {
		return "", errors.New("missing params")
	}

	if callParams.Name == "" {
		return "", errors.New("missing tool name")
	}

	return callParams.Name, nil
}

func sessionID(req mcp.Request) string {
	ss, ok := req.GetSession().(*mcp.ServerSession)
	if !ok || ss == nil {
		return ""
	}
	return ss.ID()
}

// outcome reports whether a call succeeded and, if not, why.
func outcome(result mcp.Result, err error) (bool, string) {
	if err != nil {
		return false, err.Error()
	}
	tr, ok := result.(*mcp.CallToolResult)
	if !ok || tr == nil || !tr.IsError {
		return true, ""
	}
	for _, c := range tr.Content {
		if text, ok := c.(*mcp.TextContent); ok {
			return false, text.Text
		}
	}
	return false, "tool returned an error"
}

func logToolCall(ctx context.Context, cc *CallContext) {
	attrs := []any{
		"request_id", cc.RequestID,
		"tool", cc.ToolName,
		"connector", cc.Connector,
		"duration_ms", cc.Duration.Milliseconds(),
	}
	if cc.SessionID != "" {
		attrs = append(attrs, "session_id", cc.SessionID)
	}
	if !cc.Success {
		slog.WarnContext(ctx, "tool call failed", append(attrs, "error", cc.ErrorMessage)...)
		return
	}
	slog.InfoContext(ctx, "tool call", attrs...)
}

// createErrorResult creates an MCP error result for a rejected request.
func createErrorResult(errMsg string) mcp.Result {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: errMsg},
		},
	}
}
