package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/doctext/analysis"
	"github.com/hazyhaar/doctext/docpipe"
	"github.com/hazyhaar/doctext/shield"
)

// NewRouter builds the HTTP API:
//
//	GET  /healthz
//	POST /v1/extract
//	GET  /v1/media-types
//	POST /v1/analyze      (only with a language model)
func NewRouter(deps *Dependencies, limiter *shield.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	for _, mw := range shield.APIStack(limiter) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		docpipe.WriteJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"version":  version,
			"analysis": deps.Analyzer != nil,
		})
	})

	deps.Pipeline.RegisterHTTP(r)
	if deps.Analyzer != nil {
		h := &analysis.Handler{
			Extractor: deps.Pipeline,
			Analyzer:  deps.Analyzer,
			MaxBytes:  deps.Pipeline.Config().MaxFileSize,
		}
		h.RegisterHTTP(r)
	}
	return r
}

// Run executes the serve command. It returns when the context is canceled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	addr := c.Listen
	if addr == "" {
		addr = deps.Config.HTTP.Listen
	}

	var limiter *shield.RateLimiter
	if n := deps.Config.HTTP.AnalyzePerMinute; n > 0 {
		limiter = shield.NewRateLimiter(map[string]shield.RateLimitConfig{
			"POST /v1/analyze": {MaxRequests: n, Window: AnalyzeWindow},
		})
		limiter.StartGC(deps.Ctx.Done(), 5*time.Minute)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(deps, limiter),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute, // OCR and model calls are slow
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		deps.Logger.Info("doctext listening", "addr", addr, "analysis", deps.Analyzer != nil)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-deps.Ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		deps.Logger.Error("shutdown", "error", err)
		return err
	}
	deps.Logger.Info("server stopped")
	return nil
}
