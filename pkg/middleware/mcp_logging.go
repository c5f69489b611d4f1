package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// clientLoggerName identifies log notifications sent by this server.
const clientLoggerName = "dbmesh"

// sessionLogger abstracts the ServerSession.Log method for testability.
type sessionLogger interface {
	Log(ctx context.Context, params *mcp.LoggingMessageParams) error
}

// ClientLoggingConfig configures server-to-client logging middleware.
type ClientLoggingConfig struct {
	Enabled bool
}

// MCPClientLoggingMiddleware creates MCP protocol-level middleware that sends
// a log notification to the client after each tools/call.
//
// It must run inside MCPToolCallMiddleware, which supplies the CallContext.
// The client only receives the log if it has called logging/setLevel;
// otherwise ServerSession.Log() is a silent no-op.
func MCPClientLoggingMiddleware(cfg ClientLoggingConfig) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		if !cfg.Enabled {
			return next
		}

		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodToolsCall {
				return next(ctx, method, req)
			}

			result, err := next(ctx, method, req)

			sendClientLog(ctx, req, result, err)

			return result, err
		}
	}
}

// sendClientLog sends a log notification when a call context and a server
// session are available. Failures are only logged locally.
func sendClientLog(ctx context.Context, req mcp.Request, result mcp.Result, handlerErr error) {
	cc := GetCallContext(ctx)
	if cc == nil || req == nil {
		return
	}

	ss, ok := req.GetSession().(*mcp.ServerSession)
	if !ok || ss == nil {
		return
	}

	success, _ := outcome(result, handlerErr)
	emitClientLog(ctx, ss, cc, success)
}

// emitClientLog builds and sends a log notification to the client.
func emitClientLog(ctx context.Context, logger sessionLogger, cc *CallContext, success bool) {
	level := mcp.LoggingLevel("info")
	verb := "completed"
	if !success {
		level = "warning"
		verb = "failed"
	}

	msg := fmt.Sprintf("%s %s in %dms", cc.ToolName, verb, time.Since(cc.StartTime).Milliseconds())
	if cc.Connector != "" {
		msg = fmt.Sprintf("%s (connector %s)", msg, cc.Connector)
	}

	if err := logger.Log(ctx, &mcp.LoggingMessageParams{
		Level:  level,
		Logger: clientLoggerName,
		Data:   msg,
	}); err != nil {
		slog.Debug("client logging: failed to send log notification", "error", err)
	}
}
