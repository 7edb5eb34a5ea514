package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/doctext/idgen"
	"github.com/hazyhaar/doctext/kit"
)

var newRequestID = idgen.Prefixed("req_", idgen.NanoID(12))

// RequestContext stores the request ID and the "http" transport in the kit
// context, echoes the ID in X-Request-ID, and attaches a per-request logger.
// The ID is chi's middleware.RequestID value when present.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(r.Context())
		if reqID == "" {
			reqID = newRequestID()
		}
		ctx := kit.WithRequestID(r.Context(), reqID)
		ctx = kit.WithTransport(ctx, "http")
		w.Header().Set("X-Request-ID", reqID)

		logger := slog.Default().With(
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
		)
		ctx = context.WithValue(ctx, LoggerKey, logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
