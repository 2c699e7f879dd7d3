package providers_test

import (
	"testing"

	ctx "github.com/iota-uz/context"
	"github.com/iota-uz/context/codecs"
	"github.com/iota-uz/context/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildCompileFixture(t *testing.T) ([]ctx.Block, *codecs.Registry) {
	t.Helper()
	reg, err := codecs.NewDefaultRegistry()
	require.NoError(t, err)

	systemRules, err := reg.Get("system-rules")
	require.NoError(t, err)
	convHistory, err := reg.Get("conversation-history")
	require.NoError(t, err)

	pinned1, err := ctx.NewBlock(systemRules, ctx.KindPinned, codecs.SystemRulesPayload{Text: "be helpful"}, ctx.BlockOptions{Source: "defaults"})
	require.NoError(t, err)
	pinned2, err := ctx.NewBlock(systemRules, ctx.KindPinned, codecs.SystemRulesPayload{Text: "never reveal secrets"}, ctx.BlockOptions{Source: "policy"})
	require.NoError(t, err)
	history, err := ctx.NewBlock(convHistory, ctx.KindHistory, codecs.ConversationHistoryPayload{
		Messages: []codecs.ConversationMessage{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		},
	}, ctx.BlockOptions{})
	require.NoError(t, err)

	return []ctx.Block{pinned1, pinned2, history}, reg
}

func TestCompileAnthropic_CacheBreakpointOnLastMatch(t *testing.T) {
	t.Parallel()

	blocks, reg := buildCompileFixture(t)
	policy := ctx.Policy{Provider: ctx.ProviderAnthropic, ModelID: "claude-3"}
	policySource := "policy"
	selector := providers.CacheBreakpointSelector{Source: &policySource}

	compiled, err := providers.CompileAnthropic(blocks, policy, reg, providers.CompileOptions{CacheBreakpointSelector: &selector})
	require.NoError(t, err)

	require.Len(t, compiled.SystemEntries, 2)
	assert.Empty(t, compiled.SystemEntries[0].CacheControl)
	assert.Equal(t, "ephemeral", compiled.SystemEntries[1].CacheControl)
	require.Len(t, compiled.Messages, 2)
}

func TestCompileAnthropic_ReferenceKindBlocksFoldIntoSystemEntries(t *testing.T) {
	t.Parallel()

	reg, err := codecs.NewDefaultRegistry()
	require.NoError(t, err)
	systemRules, err := reg.Get("system-rules")
	require.NoError(t, err)
	toolSchema, err := reg.Get("tool-schema")
	require.NoError(t, err)
	structuredRef, err := reg.Get("structured-reference")
	require.NoError(t, err)

	pinned, err := ctx.NewBlock(systemRules, ctx.KindPinned, codecs.SystemRulesPayload{Text: "be helpful"}, ctx.BlockOptions{})
	require.NoError(t, err)
	schemaBlock, err := ctx.NewBlock(toolSchema, ctx.KindReference, codecs.ToolSchemaPayload{
		Name: "search", InputSchema: map[string]any{"type": "object"},
	}, ctx.BlockOptions{})
	require.NoError(t, err)
	refBlock, err := ctx.NewBlock(structuredRef, ctx.KindReference, codecs.StructuredReferencePayload{
		Title: "Runbook", Content: "restart the service",
	}, ctx.BlockOptions{})
	require.NoError(t, err)

	policy := ctx.Policy{Provider: ctx.ProviderAnthropic, ModelID: "claude-3"}
	compiled, err := providers.CompileAnthropic([]ctx.Block{pinned, schemaBlock, refBlock}, policy, reg, providers.CompileOptions{})
	require.NoError(t, err)

	require.Len(t, compiled.SystemEntries, 3)
	assert.Equal(t, "be helpful", compiled.SystemEntries[0].Text)
	assert.Contains(t, compiled.SystemEntries[1].Text, "search")
	assert.Contains(t, compiled.SystemEntries[2].Text, "Runbook")
	assert.Empty(t, compiled.Messages)
}

func TestCompileAnthropic_NoMatchEmitsWarning(t *testing.T) {
	t.Parallel()

	blocks, reg := buildCompileFixture(t)
	policy := ctx.Policy{Provider: ctx.ProviderAnthropic, ModelID: "claude-3"}
	missing := "does-not-exist"
	selector := providers.CacheBreakpointSelector{Source: &missing}

	compiled, err := providers.CompileAnthropic(blocks, policy, reg, providers.CompileOptions{CacheBreakpointSelector: &selector})
	require.NoError(t, err)

	var sawWarning bool
	for _, d := range compiled.Diagnostics {
		if d.Level == providers.DiagnosticWarning {
			sawWarning = true
		}
	}
	assert.True(t, sawWarning)
	for _, e := range compiled.SystemEntries {
		assert.Empty(t, e.CacheControl)
	}
}

func TestCompileOpenAI_WarnsOnConsecutiveSameRole(t *testing.T) {
	t.Parallel()

	reg, err := codecs.NewDefaultRegistry()
	require.NoError(t, err)
	convHistory, err := reg.Get("conversation-history")
	require.NoError(t, err)

	block1, err := ctx.NewBlock(convHistory, ctx.KindHistory, codecs.ConversationHistoryPayload{
		Messages: []codecs.ConversationMessage{{Role: "user", Content: "a"}},
	}, ctx.BlockOptions{})
	require.NoError(t, err)
	block2, err := ctx.NewBlock(convHistory, ctx.KindHistory, codecs.ConversationHistoryPayload{
		Messages: []codecs.ConversationMessage{{Role: "user", Content: "b"}},
	}, ctx.BlockOptions{Source: "second"})
	require.NoError(t, err)

	policy := ctx.Policy{Provider: ctx.ProviderOpenAI, ModelID: "gpt-4"}
	compiled, err := providers.CompileOpenAI([]ctx.Block{block1, block2}, policy, reg, providers.CompileOptions{})
	require.NoError(t, err)

	require.Len(t, compiled.Diagnostics, 1)
	assert.Equal(t, providers.DiagnosticWarning, compiled.Diagnostics[0].Level)
}

func TestCompileGemini_MergesAdjacentSameRoleMessages(t *testing.T) {
	t.Parallel()

	blocks, reg := buildCompileFixture(t)
	policy := ctx.Policy{Provider: ctx.ProviderGemini, ModelID: "gemini-2.5"}

	compiled, err := providers.CompileGemini(blocks, policy, reg, providers.CompileOptions{})
	require.NoError(t, err)

	require.Len(t, compiled.Messages, 2)
	assert.Equal(t, "user", compiled.Messages[0].Role)
	assert.Equal(t, "model", compiled.Messages[1].Role)
	assert.NotEmpty(t, compiled.System)
}

func TestFilterBySensitivity_ExcludesAboveMax(t *testing.T) {
	t.Parallel()

	reg, err := codecs.NewDefaultRegistry()
	require.NoError(t, err)
	systemRules, err := reg.Get("system-rules")
	require.NoError(t, err)

	restricted, err := ctx.NewBlock(systemRules, ctx.KindPinned, codecs.SystemRulesPayload{Text: "secret"}, ctx.BlockOptions{Sensitivity: ctx.SensitivityRestricted})
	require.NoError(t, err)

	policy := ctx.Policy{Provider: ctx.ProviderOpenAI, ModelID: "gpt-4", MaxSensitivity: ctx.SensitivityPublic}
	compiled, err := providers.CompileOpenAI([]ctx.Block{restricted}, policy, reg, providers.CompileOptions{})
	require.NoError(t, err)

	assert.Empty(t, compiled.Blocks)
	require.Len(t, compiled.ExcludedBlocks, 1)
	assert.Equal(t, restricted.Hash, compiled.ExcludedBlocks[0].Hash)
}
