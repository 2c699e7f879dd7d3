package providers

import (
	ctx "github.com/iota-uz/context"
)

// CompileAnthropic assembles blocks into an Anthropic-shaped CompiledContext:
// pinned blocks become independent system[] entries (one may receive the
// ephemeral cache_control marker per options.CacheBreakpointSelector).
// Non-pinned blocks that render to system text (tool-schema,
// structured-reference) are appended as further system[] entries after the
// pinned ones and are never cache-marked; everything else renders into the
// user/assistant/tool_result message list in the order the blocks were
// given. No implicit re-ordering.
func CompileAnthropic(blocks []ctx.Block, policy ctx.Policy, codecLookup ctx.CodecLookup, options CompileOptions) (CompiledContext, error) {
	included, excluded := filterBySensitivity(blocks, policy)

	var pinned []ctx.Block
	var rest []ctx.Block
	for _, b := range included {
		if b.Meta.Kind == ctx.KindPinned {
			pinned = append(pinned, b)
		} else {
			rest = append(rest, b)
		}
	}

	systemEntries := make([]SystemEntry, len(pinned))
	var diagnostics []Diagnostic
	for i, b := range pinned {
		codec, err := codecLookup.Get(b.Meta.CodecID)
		if err != nil {
			return CompiledContext{}, err
		}
		rendered, err := codec.Render(b)
		if err != nil {
			return CompiledContext{}, err
		}
		systemEntries[i] = SystemEntry{Text: rendered.AnthropicSystem}
	}

	if options.CacheBreakpointSelector != nil && len(pinned) > 0 {
		idx, diags := resolveCacheBreakpoint(pinned, *options.CacheBreakpointSelector)
		diagnostics = append(diagnostics, diags...)
		if idx >= 0 {
			systemEntries[idx].CacheControl = "ephemeral"
		}
	}

	var messages []ctx.ProviderMessage
	for _, b := range rest {
		codec, err := codecLookup.Get(b.Meta.CodecID)
		if err != nil {
			return CompiledContext{}, err
		}
		rendered, err := codec.Render(b)
		if err != nil {
			return CompiledContext{}, err
		}
		if rendered.AnthropicSystem != "" {
			systemEntries = append(systemEntries, SystemEntry{Text: rendered.AnthropicSystem})
			continue
		}
		messages = append(messages, rendered.Anthropic...)
	}

	return CompiledContext{
		Provider:        ctx.ProviderAnthropic,
		ModelID:         policy.ModelID,
		Messages:        messages,
		SystemEntries:   systemEntries,
		EstimatedTokens: estimateTokens(policy, included),
		Blocks:          included,
		ExcludedBlocks:  excluded,
		Diagnostics:     diagnostics,
		Meta:            map[string]any{},
	}, nil
}
