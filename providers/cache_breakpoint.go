package providers

import (
	"strconv"

	ctx "github.com/iota-uz/context"
)

// CacheBreakpointSelector names which pinned block should receive the
// Anthropic ephemeral cache marker. A nil field is unconstrained; every
// non-nil field must equal the candidate block's corresponding value (Tag
// matches via block.Meta.HasTag).
type CacheBreakpointSelector struct {
	Kind    *ctx.BlockKind
	CodecID *string
	Tag     *string
	Source  *string
}

func (s CacheBreakpointSelector) matches(block ctx.Block) bool {
	if s.Kind != nil && *s.Kind != block.Meta.Kind {
		return false
	}
	if s.CodecID != nil && *s.CodecID != block.Meta.CodecID {
		return false
	}
	if s.Tag != nil && !block.Meta.HasTag(*s.Tag) {
		return false
	}
	if s.Source != nil && *s.Source != block.Meta.Source {
		return false
	}
	return true
}

// resolveCacheBreakpoint picks the last pinned block matching selector among
// pinnedBlocks (already in compiled order). Returns the chosen index (-1 if
// none) and the diagnostics the rule mandates.
func resolveCacheBreakpoint(pinnedBlocks []ctx.Block, selector CacheBreakpointSelector) (int, []Diagnostic) {
	matchCount := 0
	lastMatch := -1
	for i, b := range pinnedBlocks {
		if selector.matches(b) {
			matchCount++
			lastMatch = i
		}
	}

	var diagnostics []Diagnostic
	switch {
	case matchCount == 0:
		diagnostics = append(diagnostics, Diagnostic{Level: DiagnosticWarning, Message: "cache breakpoint selector matched no pinned block", Position: -1})
	default:
		diagnostics = append(diagnostics, Diagnostic{
			Level:    DiagnosticInfo,
			Message:  "resolved cache breakpoint to block " + strconv.Itoa(lastMatch) + ", " + strconv.Itoa(matchCount) + " matches",
			Position: lastMatch,
		})
		if matchCount > 10 {
			diagnostics = append(diagnostics, Diagnostic{Level: DiagnosticWarning, Message: "cache breakpoint selector matched an unusually large number of blocks (>10)", Position: lastMatch})
		}
	}
	return lastMatch, diagnostics
}
