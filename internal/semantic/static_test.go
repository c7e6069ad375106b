package semantic

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedder_Deterministic(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	// Given: the same text embedded twice
	a, err := e.Embed(ctx, "Government services must publish open API standards")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "Government services must publish open API standards")
	require.NoError(t, err)

	// Then: vectors are identical
	assert.Equal(t, a, b)
}

func TestStaticEmbedder_DifferentTextsDiffer(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	a, err := e.Embed(ctx, "accessibility requirements for public services")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "cloud hosting security principles")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestStaticEmbedder_UnitLength(t *testing.T) {
	e := NewStaticEmbedder()

	vec, err := e.Embed(context.Background(), "data protection and encryption guidance")
	require.NoError(t, err)
	require.Len(t, vec, StaticDimensions)

	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-5)
}

func TestStaticEmbedder_EmptyTextIsZeroVector(t *testing.T) {
	e := NewStaticEmbedder()

	vec, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	require.Len(t, vec, StaticDimensions)

	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestStaticEmbedder_EmbedBatch(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	vecs, err := e.EmbedBatch(ctx, []string{"first text", "second text"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	single, err := e.Embed(ctx, "first text")
	require.NoError(t, err)
	assert.Equal(t, single, vecs[0])
}

func TestStaticEmbedder_ClosedReturnsError(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "anything")
	assert.Error(t, err)
	assert.False(t, e.Available(context.Background()))
}
