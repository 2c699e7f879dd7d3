package providers

import (
	"strconv"
	"strings"

	ctx "github.com/iota-uz/context"
)

// CompileGemini assembles blocks into a Gemini-shaped CompiledContext: pinned
// blocks concatenate into the single system string, and the remaining
// blocks render into a user/model message list with strict alternation
// *enforced* by merging adjacent same-role messages (their parts
// concatenate) rather than merely warned about, since Gemini rejects
// non-alternating turns outright.
func CompileGemini(blocks []ctx.Block, policy ctx.Policy, codecLookup ctx.CodecLookup, _ CompileOptions) (CompiledContext, error) {
	included, excluded := filterBySensitivity(blocks, policy)

	var systemParts []string
	var rendered []ctx.ProviderMessage
	for _, b := range included {
		codec, err := codecLookup.Get(b.Meta.CodecID)
		if err != nil {
			return CompiledContext{}, err
		}
		r, err := codec.Render(b)
		if err != nil {
			return CompiledContext{}, err
		}
		if r.GeminiSystem != "" {
			systemParts = append(systemParts, r.GeminiSystem)
			continue
		}
		rendered = append(rendered, r.Gemini...)
	}

	messages, diagnostics := mergeGeminiAlternation(rendered)

	return CompiledContext{
		Provider:        ctx.ProviderGemini,
		ModelID:         policy.ModelID,
		Messages:        messages,
		System:          strings.Join(systemParts, "\n\n"),
		EstimatedTokens: estimateTokens(policy, included),
		Blocks:          included,
		ExcludedBlocks:  excluded,
		Diagnostics:     diagnostics,
		Meta:            map[string]any{},
	}, nil
}

// mergeGeminiAlternation accumulates parts while role is unchanged and
// emits a merged message when the role switches (spec.md §4.8).
func mergeGeminiAlternation(messages []ctx.ProviderMessage) ([]ctx.ProviderMessage, []Diagnostic) {
	var out []ctx.ProviderMessage
	var diagnostics []Diagnostic

	for i, m := range messages {
		if isEmptyContent(m.Content) {
			diagnostics = append(diagnostics, Diagnostic{
				Level:    DiagnosticError,
				Message:  "message at position " + strconv.Itoa(i) + " has empty parts",
				Position: i,
			})
		}
		if len(out) > 0 && out[len(out)-1].Role == m.Role {
			out[len(out)-1] = mergeGeminiMessage(out[len(out)-1], m)
			continue
		}
		out = append(out, m)
	}
	return out, diagnostics
}

func mergeGeminiMessage(a, b ctx.ProviderMessage) ctx.ProviderMessage {
	parts := append(toParts(a.Content), toParts(b.Content)...)
	a.Content = parts
	return a
}

func toParts(content any) []any {
	if parts, ok := content.([]any); ok {
		return parts
	}
	return []any{content}
}

func isEmptyContent(content any) bool {
	switch v := content.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	default:
		return false
	}
}
