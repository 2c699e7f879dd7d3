package codecs

import (
	"testing"

	ctx "github.com/iota-uz/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredReference_ValidateRequiresTitleAndContent(t *testing.T) {
	t.Parallel()

	codec := NewStructuredReference()

	err := codec.Validate(StructuredReferencePayload{Title: "  ", Content: "body"})
	require.Error(t, err)
	assert.True(t, ctx.IsKind(err, ctx.KindValidation))

	err = codec.Validate(StructuredReferencePayload{Title: "doc", Content: nil})
	require.Error(t, err)
	assert.True(t, ctx.IsKind(err, ctx.KindValidation))

	err = codec.Validate(StructuredReferencePayload{Title: "doc", Content: "body"})
	assert.NoError(t, err)
}

func TestStructuredReference_CanonicalizeTrimsTitle(t *testing.T) {
	t.Parallel()

	codec := NewStructuredReference()
	a, err := codec.Canonicalize(StructuredReferencePayload{Title: "  Runbook  ", Content: "steps"})
	require.NoError(t, err)

	b, err := codec.Canonicalize(StructuredReferencePayload{Title: "Runbook", Content: "steps"})
	require.NoError(t, err)

	assert.JSONEq(t, string(b), string(a))
}

func TestStructuredReference_RenderIncludesSourceURLAndContent(t *testing.T) {
	t.Parallel()

	codec := NewStructuredReference()
	block, err := ctx.NewBlock(codec, ctx.KindPinned, StructuredReferencePayload{
		Title:     "Runbook",
		Content:   "restart the service",
		SourceURL: "https://example.internal/runbook",
	}, ctx.BlockOptions{})
	require.NoError(t, err)

	rendered, err := codec.Render(block)
	require.NoError(t, err)

	assert.Contains(t, rendered.AnthropicSystem, "Runbook")
	assert.Contains(t, rendered.AnthropicSystem, "https://example.internal/runbook")
	assert.Contains(t, rendered.AnthropicSystem, "restart the service")
	assert.Empty(t, rendered.Anthropic)
}

func TestStructuredReference_RenderSkipsNonStringContentBody(t *testing.T) {
	t.Parallel()

	codec := NewStructuredReference()
	block, err := ctx.NewBlock(codec, ctx.KindPinned, StructuredReferencePayload{
		Title:   "Schema",
		Content: map[string]any{"type": "object"},
	}, ctx.BlockOptions{})
	require.NoError(t, err)

	rendered, err := codec.Render(block)
	require.NoError(t, err)
	assert.Equal(t, "Reference: Schema", rendered.AnthropicSystem)
}

func TestStructuredReference_RenderRejectsWrongPayloadType(t *testing.T) {
	t.Parallel()

	codec := NewStructuredReference()
	_, err := codec.Render(ctx.Block{Payload: SystemRulesPayload{Text: "wrong"}})
	require.Error(t, err)
	assert.True(t, ctx.IsKind(err, ctx.KindValidation))
}
