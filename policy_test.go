package context_test

import (
	"testing"

	ctx "github.com/iota-uz/context"
	"github.com/stretchr/testify/assert"
)

func TestPolicy_AvailableTokensSubtractsCompletionReserve(t *testing.T) {
	t.Parallel()

	p := ctx.Policy{ContextWindow: 100_000, CompletionReserve: 4_000}
	assert.Equal(t, 96_000, p.AvailableTokens())
}

func TestDefaultKindPriorities_PinnedAndStateAreNotTruncatable(t *testing.T) {
	t.Parallel()

	priorities := ctx.DefaultKindPriorities()
	byKind := make(map[ctx.BlockKind]ctx.KindPriority, len(priorities))
	for _, p := range priorities {
		byKind[p.Kind] = p
	}

	assert.False(t, byKind[ctx.KindPinned].Truncatable)
	assert.False(t, byKind[ctx.KindState].Truncatable)
	assert.True(t, byKind[ctx.KindHistory].Truncatable)
	assert.True(t, byKind[ctx.KindToolOutput].Truncatable)
}
