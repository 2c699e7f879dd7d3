// Package providers compiles a selected block sequence into the
// provider-native message shape each of Anthropic, OpenAI, and Gemini
// expects. Compilers are pure: identical inputs produce byte-identical
// outputs (spec.md §4.8).
package providers

import (
	stdctx "context"

	ctx "github.com/iota-uz/context"
)

// DiagnosticLevel ranks a compilation diagnostic's severity.
type DiagnosticLevel string

const (
	DiagnosticInfo    DiagnosticLevel = "info"
	DiagnosticWarning DiagnosticLevel = "warning"
	DiagnosticError   DiagnosticLevel = "error"
)

// Diagnostic is one observation a compiler emits while assembling a
// CompiledContext (cache-breakpoint resolution, role-alternation repairs,
// empty-parts messages).
type Diagnostic struct {
	Level    DiagnosticLevel
	Message  string
	Position int // -1 when not applicable to a specific block index
}

// SystemEntry is one Anthropic system[] array element. CacheControl is
// "ephemeral" on the single entry the cache-breakpoint resolver selects,
// empty otherwise.
type SystemEntry struct {
	Text         string
	CacheControl string
}

// CompiledContext is a compiler's output.
type CompiledContext struct {
	Provider ctx.Provider
	ModelID  string
	Messages []ctx.ProviderMessage
	// System is the single concatenated system string OpenAI and Gemini
	// compile to. Anthropic instead populates SystemEntries, since its
	// system[] is an array of independently cacheable entries.
	System          string
	SystemEntries   []SystemEntry
	EstimatedTokens int
	Blocks          []ctx.Block
	// ExcludedBlocks holds the blocks dropped by the policy's MaxSensitivity
	// filter during compilation, never budget truncations — those already
	// happened upstream in CreateView (DESIGN.md Open Question #4). The
	// compilers exclude blocks for no other reason.
	ExcludedBlocks []ctx.Block
	Diagnostics    []Diagnostic
	Meta           map[string]any
}

// CompileOptions configures a compiler run.
type CompileOptions struct {
	CacheBreakpointSelector *CacheBreakpointSelector // Anthropic only
}

// filterBySensitivity splits blocks into those the policy permits and those
// it excludes, per policy.MaxSensitivity (empty means unconstrained).
func filterBySensitivity(blocks []ctx.Block, policy ctx.Policy) (included, excluded []ctx.Block) {
	if policy.MaxSensitivity == "" {
		return blocks, nil
	}
	for _, b := range blocks {
		if ctx.SensitivityAtMost(b.Meta.Sensitivity, policy.MaxSensitivity) {
			included = append(included, b)
		} else {
			excluded = append(excluded, b)
		}
	}
	return included, excluded
}

func estimateTokens(policy ctx.Policy, blocks []ctx.Block) int {
	if policy.Estimator == nil || len(blocks) == 0 {
		return 0
	}
	est, err := policy.Estimator.Estimate(stdctx.Background(), blocks)
	if err != nil {
		return 0
	}
	return est.Tokens
}
