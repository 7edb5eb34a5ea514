// Package kit holds the transport-neutral endpoint type shared by the HTTP
// and MCP surfaces, plus the request context values they set.
package kit

import (
	"context"
	"log/slog"
	"time"
)

// Endpoint is one operation, independent of how it is reached.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first one is the outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Logging logs each call of the named endpoint with its transport, request
// id and duration.
func Logging(logger *slog.Logger, name string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			attrs := []any{
				"endpoint", name,
				"transport", GetTransport(ctx),
				"duration", time.Since(start),
			}
			if id := GetRequestID(ctx); id != "" {
				attrs = append(attrs, "request_id", id)
			}
			if err != nil {
				logger.WarnContext(ctx, "endpoint failed", append(attrs, "error", err)...)
			} else {
				logger.DebugContext(ctx, "endpoint done", attrs...)
			}
			return resp, err
		}
	}
}
