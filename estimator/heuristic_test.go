package estimator_test

import (
	stdctx "context"
	"testing"

	ctx "github.com/iota-uz/context"
	"github.com/iota-uz/context/codecs"
	"github.com/iota-uz/context/estimator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristic_EstimateBlock_ConfidenceLow(t *testing.T) {
	t.Parallel()

	reg, err := codecs.NewDefaultRegistry()
	require.NoError(t, err)
	systemRules, err := reg.Get("system-rules")
	require.NoError(t, err)

	block, err := ctx.NewBlock(systemRules, ctx.KindPinned, codecs.SystemRulesPayload{Text: "be helpful"}, ctx.BlockOptions{})
	require.NoError(t, err)

	h := estimator.New()
	est, err := h.EstimateBlock(stdctx.Background(), block)
	require.NoError(t, err)
	assert.Equal(t, ctx.ConfidenceLow, est.Confidence)
	assert.Greater(t, est.Tokens, 0)
}

func TestHeuristic_Estimate_SumsBlocks(t *testing.T) {
	t.Parallel()

	reg, err := codecs.NewDefaultRegistry()
	require.NoError(t, err)
	systemRules, err := reg.Get("system-rules")
	require.NoError(t, err)

	b1, err := ctx.NewBlock(systemRules, ctx.KindPinned, codecs.SystemRulesPayload{Text: "a"}, ctx.BlockOptions{})
	require.NoError(t, err)
	b2, err := ctx.NewBlock(systemRules, ctx.KindPinned, codecs.SystemRulesPayload{Text: "b"}, ctx.BlockOptions{Source: "other"})
	require.NoError(t, err)

	h := estimator.New()
	one, err := h.EstimateBlock(stdctx.Background(), b1)
	require.NoError(t, err)
	two, err := h.EstimateBlock(stdctx.Background(), b2)
	require.NoError(t, err)

	total, err := h.Estimate(stdctx.Background(), []ctx.Block{b1, b2})
	require.NoError(t, err)
	assert.Equal(t, one.Tokens+two.Tokens, total.Tokens)
}

type failingEstimator struct{}

func (failingEstimator) EstimateBlock(_ stdctx.Context, block ctx.Block) (ctx.TokenEstimate, error) {
	return ctx.TokenEstimate{}, ctx.NewError(ctx.KindEstimatorUnavailable, block.Hash, "provider unreachable", nil)
}

func (failingEstimator) Estimate(_ stdctx.Context, _ []ctx.Block) (ctx.TokenEstimate, error) {
	return ctx.TokenEstimate{}, ctx.NewError(ctx.KindEstimatorUnavailable, "", "provider unreachable", nil)
}

func TestFallback_DegradesToHeuristicOnEstimatorUnavailable(t *testing.T) {
	t.Parallel()

	reg, err := codecs.NewDefaultRegistry()
	require.NoError(t, err)
	systemRules, err := reg.Get("system-rules")
	require.NoError(t, err)
	block, err := ctx.NewBlock(systemRules, ctx.KindPinned, codecs.SystemRulesPayload{Text: "be helpful"}, ctx.BlockOptions{})
	require.NoError(t, err)

	fb := estimator.NewFallback(failingEstimator{})
	est, err := fb.EstimateBlock(stdctx.Background(), block)
	require.NoError(t, err)
	assert.Equal(t, ctx.ConfidenceLow, est.Confidence)
}
