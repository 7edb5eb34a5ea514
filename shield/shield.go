// Package shield provides the HTTP middleware in front of the doctext API:
// security headers, HEAD handling, request context for logging and event
// correlation, and per-client rate limits on expensive endpoints.
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID)
//	for _, mw := range shield.APIStack(limiter) {
//	    r.Use(mw)
//	}
package shield

import (
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// APIStack returns the standard middleware stack of the doctext API:
// HeadToGet → SecurityHeaders → RequestContext → RateLimiter. A nil
// limiter is skipped. Run it after chi's middleware.RequestID so request
// IDs carry over.
func APIStack(rl *RateLimiter) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(APIHeaders()),
		RequestContext,
	}
	if rl != nil {
		stack = append(stack, rl.Middleware)
	}
	return stack
}
