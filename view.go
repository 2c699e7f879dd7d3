package context

import (
	stdctx "context"
	"strings"
	"time"
)

// Confidence ranks a token estimate's trustworthiness, best to worst:
// exact, high, low. When aggregating, the aggregate confidence is the worst
// of the included blocks' confidences.
type Confidence string

const (
	ConfidenceExact Confidence = "exact"
	ConfidenceHigh  Confidence = "high"
	ConfidenceLow   Confidence = "low"
)

var confidenceRank = map[Confidence]int{
	ConfidenceExact: 0,
	ConfidenceHigh:  1,
	ConfidenceLow:   2,
}

func worstConfidence(a, b Confidence) Confidence {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if confidenceRank[b] > confidenceRank[a] {
		return b
	}
	return a
}

// TokenEstimate is the result of a token estimator call.
type TokenEstimate struct {
	Tokens     int
	Confidence Confidence
}

// TokenEstimator is the external collaborator that estimates token counts for
// blocks. Implementations may call a provider API, a BPE table, or fall back
// to a char/4 heuristic with confidence=low. The core only ever consumes this
// interface; it never counts tokens itself (NON-GOALS: authoritative token
// counting).
type TokenEstimator interface {
	Estimate(ctx stdctx.Context, blocks []Block) (TokenEstimate, error)
	EstimateBlock(ctx stdctx.Context, block Block) (TokenEstimate, error)
}

// View is an immutable, deterministically-ordered snapshot of selected
// blocks. Two views are equivalent iff their StablePrefixHash match.
type View struct {
	Blocks           []Block
	TokenEstimate    *TokenEstimate
	Truncated        bool
	StablePrefixHash string
	CreatedAt        time.Time
}

// ViewOptions configures CreateView.
type ViewOptions struct {
	Query     Query
	Estimator TokenEstimator
	// MaxTokens is the token budget. nil means unconstrained (even a
	// supplied estimator only estimates once, over every selected block).
	// A non-nil *0 is a valid, exhaustible budget of zero tokens (B2).
	MaxTokens *int
}

// StablePrefixHash computes SHA256(concat(blockHash, "|")) over the ordered
// block hashes. The empty sequence yields EmptyCanonicalHash's sibling: the
// hash of the empty string's UTF-8 bytes has no special-case here because an
// empty join already produces a fixed, well-defined digest (B1).
func StablePrefixHash(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.Hash)
		sb.WriteByte('|')
	}
	return sha256Hex([]byte(sb.String()))
}

// CreateView builds a deterministic snapshot from graph per options: select,
// sort by (kindOrder, blockHash), optionally truncate to MaxTokens, compute
// the stable prefix hash.
func (g *Graph) CreateView(ctx stdctx.Context, options ViewOptions) (View, error) {
	blocks := g.Select(options.Query)
	SortStable(blocks)

	view := View{CreatedAt: Now()}

	switch {
	case options.Estimator != nil && options.MaxTokens != nil:
		budget := *options.MaxTokens
		var included []Block
		total := 0
		var confidence Confidence
		for _, b := range blocks {
			est, err := options.Estimator.EstimateBlock(ctx, b)
			if err != nil {
				return View{}, NewError(KindEstimatorUnavailable, b.Hash, "token estimation failed", err)
			}
			if total+est.Tokens > budget {
				view.Truncated = true
				break
			}
			total += est.Tokens
			confidence = worstConfidence(confidence, est.Confidence)
			included = append(included, b)
		}
		if len(included) < len(blocks) {
			view.Truncated = true
		}
		blocks = included
		view.TokenEstimate = &TokenEstimate{Tokens: total, Confidence: confidence}

	case options.Estimator != nil:
		est, err := options.Estimator.Estimate(ctx, blocks)
		if err != nil {
			return View{}, NewError(KindEstimatorUnavailable, "", "token estimation failed", err)
		}
		view.TokenEstimate = &est
	}

	view.Blocks = blocks
	view.StablePrefixHash = StablePrefixHash(blocks)
	return view, nil
}

// MergeViews concatenates views, deduplicates by hash (first occurrence
// wins), re-sorts, and re-hashes (L3: MergeViews(v) == v).
func MergeViews(views ...View) View {
	seen := make(map[string]bool)
	var blocks []Block
	for _, v := range views {
		for _, b := range v.Blocks {
			if seen[b.Hash] {
				continue
			}
			seen[b.Hash] = true
			blocks = append(blocks, b)
		}
	}
	SortStable(blocks)
	return View{
		Blocks:           blocks,
		StablePrefixHash: StablePrefixHash(blocks),
		CreatedAt:        Now(),
	}
}
