package estimator

import (
	stdctx "context"
	"encoding/json"

	ctx "github.com/iota-uz/context"
	"github.com/pkoukk/tiktoken-go"
)

// Tiktoken estimates tokens by BPE-encoding each block's payload, as
// encoding/json marshals it, with a real tokenizer encoding (e.g. "cl100k_base"), the same
// approach as the teacher's NewTiktokenEstimator. Confidence is always
// exact: the BPE table used to compile the prompt is the same table used
// here, not an approximation of it.
type Tiktoken struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktoken returns a Tiktoken estimator for the named encoding (e.g.
// "cl100k_base", "o200k_base"). It errors immediately if the encoding is
// unknown rather than deferring the failure to the first EstimateBlock call.
func NewTiktoken(encodingName string) (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, ctx.NewError(ctx.KindEstimatorUnavailable, encodingName, "unknown tiktoken encoding", err)
	}
	return &Tiktoken{encoding: enc}, nil
}

func (t *Tiktoken) EstimateBlock(_ stdctx.Context, block ctx.Block) (ctx.TokenEstimate, error) {
	raw, err := json.Marshal(block.Payload)
	if err != nil {
		return ctx.TokenEstimate{}, ctx.NewError(ctx.KindEstimatorUnavailable, block.Hash, "tiktoken estimation failed", err)
	}
	tokens := t.encoding.Encode(string(raw), nil, nil)
	return ctx.TokenEstimate{Tokens: len(tokens), Confidence: ctx.ConfidenceExact}, nil
}

func (t *Tiktoken) Estimate(ctxArg stdctx.Context, blocks []ctx.Block) (ctx.TokenEstimate, error) {
	total := 0
	for _, b := range blocks {
		est, err := t.EstimateBlock(ctxArg, b)
		if err != nil {
			return ctx.TokenEstimate{}, err
		}
		total += est.Tokens
	}
	return ctx.TokenEstimate{Tokens: total, Confidence: ctx.ConfidenceExact}, nil
}
