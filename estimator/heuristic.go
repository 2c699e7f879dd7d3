// Package estimator implements context.TokenEstimator — a capability the
// core never provides itself (spec.md Non-goals: authoritative token
// counting).
package estimator

import (
	stdctx "context"
	"encoding/json"
	"math"

	ctx "github.com/iota-uz/context"
)

const (
	charsPerToken    = 4.0
	safetyMultiplier = 1.2
)

// Heuristic estimates tokens as ceil(len(JSON(payload))/4 * 1.2), confidence
// always low. It never calls out to a provider or a BPE table — a decorator
// wrapping a real estimator with this as a fallback belongs to the caller,
// not to this type (see Fallback).
type Heuristic struct{}

// New returns a Heuristic estimator.
func New() *Heuristic { return &Heuristic{} }

func (Heuristic) EstimateBlock(_ stdctx.Context, block ctx.Block) (ctx.TokenEstimate, error) {
	n, err := jsonLength(block.Payload)
	if err != nil {
		return ctx.TokenEstimate{}, ctx.NewError(ctx.KindEstimatorUnavailable, block.Hash, "heuristic estimation failed", err)
	}
	return ctx.TokenEstimate{Tokens: tokensFromChars(n), Confidence: ctx.ConfidenceLow}, nil
}

func (h Heuristic) Estimate(ctxArg stdctx.Context, blocks []ctx.Block) (ctx.TokenEstimate, error) {
	total := 0
	for _, b := range blocks {
		est, err := h.EstimateBlock(ctxArg, b)
		if err != nil {
			return ctx.TokenEstimate{}, err
		}
		total += est.Tokens
	}
	return ctx.TokenEstimate{Tokens: total, Confidence: ctx.ConfidenceLow}, nil
}

func tokensFromChars(chars int) int {
	return int(math.Ceil(float64(chars) / charsPerToken * safetyMultiplier))
}

func jsonLength(payload any) (int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}

// Fallback wraps a primary estimator and degrades to Heuristic whenever the
// primary returns an EstimatorUnavailable error — the spec's prescribed
// recovery path for this one error kind (spec.md §7 propagation policy).
type Fallback struct {
	Primary   ctx.TokenEstimator
	Heuristic *Heuristic
}

// NewFallback returns a Fallback wrapping primary, defaulting Heuristic to a
// fresh Heuristic when nil.
func NewFallback(primary ctx.TokenEstimator) *Fallback {
	return &Fallback{Primary: primary, Heuristic: New()}
}

func (f *Fallback) EstimateBlock(ctxArg stdctx.Context, block ctx.Block) (ctx.TokenEstimate, error) {
	est, err := f.Primary.EstimateBlock(ctxArg, block)
	if err == nil {
		return est, nil
	}
	if !ctx.IsKind(err, ctx.KindEstimatorUnavailable) {
		return ctx.TokenEstimate{}, err
	}
	return f.Heuristic.EstimateBlock(ctxArg, block)
}

func (f *Fallback) Estimate(ctxArg stdctx.Context, blocks []ctx.Block) (ctx.TokenEstimate, error) {
	est, err := f.Primary.Estimate(ctxArg, blocks)
	if err == nil {
		return est, nil
	}
	if !ctx.IsKind(err, ctx.KindEstimatorUnavailable) {
		return ctx.TokenEstimate{}, err
	}
	return f.Heuristic.Estimate(ctxArg, blocks)
}
