package context_test

import (
	"testing"

	ctx "github.com/iota-uz/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash_ExcludesVolatileMetadataFromStableSubset(t *testing.T) {
	t.Parallel()

	payload, err := ctx.CanonicalizeValue(map[string]any{"text": "be helpful"})
	require.NoError(t, err)

	metaA := ctx.BlockMeta{Kind: ctx.KindPinned, Sensitivity: ctx.SensitivityPublic, CodecID: "system-rules", CodecVersion: "1", CreatedAt: 1000, Source: "alice", Tags: []string{"x"}}
	metaB := ctx.BlockMeta{Kind: ctx.KindPinned, Sensitivity: ctx.SensitivityPublic, CodecID: "system-rules", CodecVersion: "1", CreatedAt: 2000, Source: "bob", Tags: []string{"y"}}

	hashA, err := ctx.ComputeHash(metaA, payload)
	require.NoError(t, err)
	hashB, err := ctx.ComputeHash(metaB, payload)
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB)
}

func TestComputeHash_DiffersOnStableSubsetChange(t *testing.T) {
	t.Parallel()

	payload, err := ctx.CanonicalizeValue(map[string]any{"text": "be helpful"})
	require.NoError(t, err)

	meta := ctx.BlockMeta{Kind: ctx.KindPinned, Sensitivity: ctx.SensitivityPublic, CodecID: "system-rules", CodecVersion: "1"}
	hashV1, err := ctx.ComputeHash(meta, payload)
	require.NoError(t, err)

	meta.CodecVersion = "2"
	hashV2, err := ctx.ComputeHash(meta, payload)
	require.NoError(t, err)

	assert.NotEqual(t, hashV1, hashV2)
}

func TestComputeHash_IsHex64(t *testing.T) {
	t.Parallel()

	payload, err := ctx.CanonicalizeValue(map[string]any{"text": "hi"})
	require.NoError(t, err)
	hash, err := ctx.ComputeHash(ctx.BlockMeta{Kind: ctx.KindPinned, CodecID: "x", CodecVersion: "1"}, payload)
	require.NoError(t, err)
	assert.Len(t, hash, 64)
}

func TestEmptyCanonicalHash_IsStableAcrossPackageLoads(t *testing.T) {
	t.Parallel()

	recomputed, err := ctx.CanonicalizeValue(map[string]any{})
	require.NoError(t, err)
	assert.NotEmpty(t, ctx.EmptyCanonicalHash)
	assert.Len(t, recomputed, 2) // "{}"
}
