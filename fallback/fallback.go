// Package fallback runs a capability through an ordered list of strategies.
//
// Each tier is tried in sequence. A tier that returns an error, panics, or
// produces an empty value hands over to the next one. The first tier that
// returns a non-empty value without error wins; if none does, Run returns an
// *ExhaustedError listing every attempt.
//
//	chain := fallback.New(isEmpty,
//		fallback.Strategy[[]byte, string]{Name: "mupdf", Run: primary},
//		fallback.Strategy[[]byte, string]{Name: "plain", Run: secondary},
//	)
//	out, err := chain.Run(ctx, data)
package fallback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Strategy is one tier of a chain.
type Strategy[In, Out any] struct {
	Name string
	Run  func(ctx context.Context, in In) (Out, error)
}

// Attempt records how a tier ended.
type Attempt struct {
	Tier  string
	Err   error // nil when the tier succeeded or returned an empty value
	Empty bool
}

func (a Attempt) String() string {
	switch {
	case a.Err != nil:
		return a.Tier + ": " + a.Err.Error()
	case a.Empty:
		return a.Tier + ": empty result"
	default:
		return a.Tier + ": ok"
	}
}

// Outcome is the value produced by the winning tier along with the history
// of every tier tried before it.
type Outcome[Out any] struct {
	Value    Out
	Tier     string
	Attempts []Attempt
}

// FellBack reports whether a tier other than the first produced the value.
func (o Outcome[Out]) FellBack() bool {
	return len(o.Attempts) > 1
}

// ExhaustedError is returned when no tier produced a usable value.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.String()
	}
	return "fallback: all tiers failed (" + strings.Join(parts, "; ") + ")"
}

// Unwrap returns the last tier error, if any.
func (e *ExhaustedError) Unwrap() error {
	for i := len(e.Attempts) - 1; i >= 0; i-- {
		if e.Attempts[i].Err != nil {
			return e.Attempts[i].Err
		}
	}
	return nil
}

// PanicError wraps a value recovered from a panicking tier.
type PanicError struct {
	Tier  string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Tier, e.Value)
}

// Chain is an ordered list of strategies for one capability.
// A Chain is immutable after New and safe for concurrent use.
type Chain[In, Out any] struct {
	tiers  []Strategy[In, Out]
	empty  func(Out) bool
	logger *slog.Logger
}

// Option configures a Chain.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger logs every tier hand-over at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds a chain. empty decides whether a value counts as "nothing
// produced"; a nil empty treats every value returned without error as usable.
func New[In, Out any](empty func(Out) bool, tiers ...Strategy[In, Out]) *Chain[In, Out] {
	return &Chain[In, Out]{tiers: tiers, empty: empty}
}

// With returns a copy of the chain configured with opts.
func (c *Chain[In, Out]) With(opts ...Option) *Chain[In, Out] {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	cp := *c
	cp.logger = o.logger
	return &cp
}

// Tiers returns the tier names in order.
func (c *Chain[In, Out]) Tiers() []string {
	names := make([]string, len(c.tiers))
	for i, t := range c.tiers {
		names[i] = t.Name
	}
	return names
}

// Run tries each tier in order. Context cancellation stops the chain: the
// remaining tiers are not attempted and the context error is returned.
func (c *Chain[In, Out]) Run(ctx context.Context, in In) (Outcome[Out], error) {
	var out Outcome[Out]
	for _, tier := range c.tiers {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		v, err := runTier(ctx, tier, in)
		switch {
		case err != nil:
			out.Attempts = append(out.Attempts, Attempt{Tier: tier.Name, Err: err})
		case c.empty != nil && c.empty(v):
			out.Attempts = append(out.Attempts, Attempt{Tier: tier.Name, Empty: true})
		default:
			out.Attempts = append(out.Attempts, Attempt{Tier: tier.Name})
			out.Value = v
			out.Tier = tier.Name
			return out, nil
		}

		if c.logger != nil {
			last := out.Attempts[len(out.Attempts)-1]
			c.logger.WarnContext(ctx, "fallback tier gave up", "tier", tier.Name, "reason", last.String())
		}
	}
	return out, &ExhaustedError{Attempts: out.Attempts}
}

func runTier[In, Out any](ctx context.Context, tier Strategy[In, Out], in In) (v Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero Out
			v = zero
			err = &PanicError{Tier: tier.Name, Value: r}
		}
	}()
	return tier.Run(ctx, in)
}

// EmptyString treats whitespace-only strings as empty.
func EmptyString(s string) bool {
	return strings.TrimSpace(s) == ""
}
