package context_test

import (
	stdctx "context"
	"testing"

	ctx "github.com/iota-uz/context"
	"github.com/iota-uz/context/codecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildForkFixture(t *testing.T) (ctx.View, *codecs.Registry) {
	t.Helper()

	reg, err := codecs.NewDefaultRegistry()
	require.NoError(t, err)
	systemRules, err := reg.Get("system-rules")
	require.NoError(t, err)
	convHistory, err := reg.Get("conversation-history")
	require.NoError(t, err)

	g := ctx.NewGraph()

	pinned, err := ctx.NewBlock(systemRules, ctx.KindPinned, codecs.SystemRulesPayload{Text: "be helpful"}, ctx.BlockOptions{})
	require.NoError(t, err)
	g.AddBlock(pinned, nil, nil)

	restricted, err := ctx.NewBlock(systemRules, ctx.KindPinned, codecs.SystemRulesPayload{Text: "internal pricing formula"}, ctx.BlockOptions{Sensitivity: ctx.SensitivityRestricted})
	require.NoError(t, err)
	g.AddBlock(restricted, nil, nil)

	history, err := ctx.NewBlock(convHistory, ctx.KindHistory, codecs.ConversationHistoryPayload{
		Messages: []codecs.ConversationMessage{{Role: "user", Content: "hi"}},
	}, ctx.BlockOptions{})
	require.NoError(t, err)
	g.AddBlock(history, nil, nil)

	view, err := g.CreateView(stdctx.Background(), ctx.ViewOptions{})
	require.NoError(t, err)
	return view, reg
}

func TestCreateFork_RedactsAboveMaxSensitivity(t *testing.T) {
	t.Parallel()

	view, reg := buildForkFixture(t)
	redactedStubCodec, err := reg.Get("redacted-stub")
	require.NoError(t, err)

	fork, err := ctx.CreateFork(view, ctx.DefaultForkOptions(), redactedStubCodec)
	require.NoError(t, err)
	require.Len(t, fork.Blocks, len(view.Blocks))

	var stubs int
	for _, b := range fork.Blocks {
		if b.Meta.CodecID == "redacted-stub" {
			stubs++
			assert.Equal(t, ctx.SensitivityPublic, b.Meta.Sensitivity)
		}
	}
	assert.Equal(t, 1, stubs, "the restricted pinned block must be redacted, the rest untouched")
}

func TestCreateFork_DropsHistoryWhenExcluded(t *testing.T) {
	t.Parallel()

	view, reg := buildForkFixture(t)
	redactedStubCodec, err := reg.Get("redacted-stub")
	require.NoError(t, err)

	options := ctx.DefaultForkOptions()
	options.IncludeHistory = false

	fork, err := ctx.CreateFork(view, options, redactedStubCodec)
	require.NoError(t, err)
	for _, b := range fork.Blocks {
		assert.NotEqual(t, ctx.KindHistory, b.Meta.Kind)
	}
}

func TestCreateFork_NeverMutatesParent(t *testing.T) {
	t.Parallel()

	view, reg := buildForkFixture(t)
	redactedStubCodec, err := reg.Get("redacted-stub")
	require.NoError(t, err)

	beforeHash := view.StablePrefixHash
	_, err = ctx.CreateFork(view, ctx.DefaultForkOptions(), redactedStubCodec)
	require.NoError(t, err)
	assert.Equal(t, beforeHash, view.StablePrefixHash)
}

func TestComputeExecutionHash_Deterministic(t *testing.T) {
	t.Parallel()

	input := ctx.ExecutionHashInput{Model: "anthropic:claude", ViewHash: "abc", Instruction: "do the thing", SchemaHash: "def"}
	h1, err := ctx.ComputeExecutionHash(input)
	require.NoError(t, err)
	h2, err := ctx.ComputeExecutionHash(input)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	input.Instruction = "do a different thing"
	h3, err := ctx.ComputeExecutionHash(input)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestExecuteFork_ForbiddenFieldLeakFailsClosed(t *testing.T) {
	t.Parallel()

	view, reg := buildForkFixture(t)
	redactedStubCodec, err := reg.Get("redacted-stub")
	require.NoError(t, err)

	task := ctx.ForkTask{
		Model:           "anthropic:claude",
		Instruction:     "summarize the conversation",
		ForbiddenFields: []string{"ssn"},
	}
	executor := func(_ stdctx.Context, _ string, _ ctx.View) (ctx.ExecutorResult, error) {
		return ctx.ExecutorResult{Output: map[string]any{"ssn": "123-45-6789"}, Summary: "done"}, nil
	}

	_, err = ctx.ExecuteFork(stdctx.Background(), view, ctx.DefaultForkOptions(), task, executor, redactedStubCodec, nil)
	require.Error(t, err)
	assert.True(t, ctx.IsKind(err, ctx.KindForbiddenFieldLeak))
}

func TestExecuteFork_ReturnsProvenance(t *testing.T) {
	t.Parallel()

	view, reg := buildForkFixture(t)
	redactedStubCodec, err := reg.Get("redacted-stub")
	require.NoError(t, err)

	task := ctx.ForkTask{Model: "anthropic:claude", Instruction: "summarize"}
	executor := func(_ stdctx.Context, _ string, _ ctx.View) (ctx.ExecutorResult, error) {
		return ctx.ExecutorResult{Output: "a summary", Summary: "a summary", Citations: []string{"h1"}}, nil
	}

	result, err := ctx.ExecuteFork(stdctx.Background(), view, ctx.DefaultForkOptions(), task, executor, redactedStubCodec, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.AgentID)
	assert.Equal(t, view.StablePrefixHash, result.Provenance.SourceViewHash)
	assert.NotEmpty(t, result.Provenance.ExecutionHash)
}

func TestIngestForkResult_RecordsDerivedFromCitations(t *testing.T) {
	t.Parallel()

	reg, err := codecs.NewDefaultRegistry()
	require.NoError(t, err)
	unsafeText, err := reg.Get("unsafe-text")
	require.NoError(t, err)

	g := ctx.NewGraph()
	result := ctx.ForkResult{Citations: []string{"parent-hash-1"}}

	block, err := ctx.IngestForkResult(g, result, unsafeText, codecs.UnsafeTextPayload{Text: "a summary"}, "", ctx.BlockOptions{})
	require.NoError(t, err)

	stored, ok := g.GetBlock(block.Hash)
	require.True(t, ok)
	assert.Equal(t, ctx.KindMemory, stored.Meta.Kind)

	parents := g.GetDerivedFrom(block.Hash)
	require.Len(t, parents, 1)
	assert.Equal(t, "parent-hash-1", parents[0].Hash)
}
