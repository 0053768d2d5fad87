package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestStaticEmbedder_Deterministic(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	a, err := e.EmbedBatch(context.Background(), []string{"the criminal code"})
	require.NoError(t, err)
	b, err := e.EmbedBatch(context.Background(), []string{"the criminal code"})
	require.NoError(t, err)

	assert.Equal(t, a[0], b[0])
}

func TestStaticEmbedder_UnitNorm(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	vectors, err := e.EmbedBatch(context.Background(), []string{"some legislative text"})
	require.NoError(t, err)

	require.Len(t, vectors[0], StaticDimensions)
	assert.InDelta(t, 1.0, vectorNorm(vectors[0]), 1e-5)
}

func TestStaticEmbedder_EmptyTextIsZeroVector(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	vectors, err := e.EmbedBatch(context.Background(), []string{"   "})
	require.NoError(t, err)

	assert.Equal(t, make([]float32, StaticDimensions), vectors[0])
}

func TestStaticEmbedder_DifferentTextsDiffer(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	vectors, err := e.EmbedBatch(context.Background(), []string{"crimes act", "evidence act"})
	require.NoError(t, err)

	assert.NotEqual(t, vectors[0], vectors[1])
}

func TestStaticEmbedder_PreservesBatchOrder(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	batch, err := e.EmbedBatch(context.Background(), []string{"one", "two", "three"})
	require.NoError(t, err)

	for i, text := range []string{"one", "two", "three"} {
		single, err := e.EmbedBatch(context.Background(), []string{text})
		require.NoError(t, err)
		assert.Equal(t, single[0], batch[i])
	}
}

func TestStaticEmbedder_ClosedFails(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())

	_, err := e.EmbedBatch(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestStaticEmbedder_CancelledContext(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.EmbedBatch(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticEmbedder_Metadata(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	assert.Equal(t, StaticDimensions, e.Dimensions())
	assert.Equal(t, "static", e.ModelName())
}
