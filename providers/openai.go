package providers

import (
	"strconv"
	"strings"

	ctx "github.com/iota-uz/context"
)

// CompileOpenAI assembles blocks into an OpenAI-shaped CompiledContext: the
// system text of every block that renders to it (pinned blocks, tool-schema
// and structured-reference blocks) is concatenated into a single inline
// system message, and the remaining blocks render into a flat message list.
// Unlike Gemini, OpenAI never reorders or merges messages — it only warns when
// two consecutive messages share a role, since that is usually a caller
// mistake rather than something the compiler should silently repair.
func CompileOpenAI(blocks []ctx.Block, policy ctx.Policy, codecLookup ctx.CodecLookup, _ CompileOptions) (CompiledContext, error) {
	included, excluded := filterBySensitivity(blocks, policy)

	var systemParts []string
	var messages []ctx.ProviderMessage
	for _, b := range included {
		codec, err := codecLookup.Get(b.Meta.CodecID)
		if err != nil {
			return CompiledContext{}, err
		}
		rendered, err := codec.Render(b)
		if err != nil {
			return CompiledContext{}, err
		}
		if rendered.OpenAISystem != "" {
			systemParts = append(systemParts, rendered.OpenAISystem)
			continue
		}
		messages = append(messages, rendered.OpenAI...)
	}

	var diagnostics []Diagnostic
	for i := 1; i < len(messages); i++ {
		if messages[i].Role == messages[i-1].Role {
			diagnostics = append(diagnostics, Diagnostic{
				Level:    DiagnosticWarning,
				Message:  "consecutive messages share role " + messages[i].Role + " at position " + strconv.Itoa(i),
				Position: i,
			})
		}
	}

	return CompiledContext{
		Provider:        ctx.ProviderOpenAI,
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
