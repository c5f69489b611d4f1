// Package middleware provides MCP protocol-level middleware for tool calls.
package middleware

import (
	"context"
	"time"
)

// contextKey is a private type for context keys.
type contextKey int

const callContextKey contextKey = iota

// CallContext holds per-request context for a tools/call request.
type CallContext struct {
	// Request identification
	RequestID string
	SessionID string
	StartTime time.Time

	// Tool information
	ToolName  string
	Connector string

	// Results (populated after handler)
	Success      bool
	ErrorMessage string
	Duration     time.Duration
}

// NewCallContext creates a call context started now.
func NewCallContext(requestID string) *CallContext {
	return &CallContext{
		RequestID: requestID,
		StartTime: time.Now(),
	}
}

// WithCallContext adds a call context to the context.
func WithCallContext(ctx context.Context, cc *CallContext) context.Context {
	return context.WithValue(ctx, callContextKey, cc)
}

// GetCallContext retrieves the call context, or nil.
func GetCallContext(ctx context.Context) *CallContext {
	if cc, ok := ctx.Value(callContextKey).(*CallContext); ok {
		return cc
	}
	return nil
}
