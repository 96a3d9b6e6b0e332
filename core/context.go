package core

import "context"

// Context keys for execution options
type contextKey string

const suppressOutputKey contextKey = "suppressOutput"

// WithSuppressOutput marks the context so executors skip human-facing output.
// The MCP server needs this because stdout carries the protocol.
func WithSuppressOutput(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressOutputKey, true)
}

// shouldSuppressOutput returns whether human-facing output should be skipped
func shouldSuppressOutput(ctx context.Context) bool {
	val := ctx.Value(suppressOutputKey)
	if val == nil {
		return false // default: print
	}
	suppress, ok := val.(bool)
	return ok && suppress
}
