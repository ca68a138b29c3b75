package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestHashingIsDeterministicAndNormalised(t *testing.T) {
	t.Parallel()

	h, err := NewHashing(64)
	require.NoError(t, err)

	first, err := h.Embed(context.Background(), "Java Programming Skills Test")
	require.NoError(t, err)
	second, err := h.Embed(context.Background(), "java programming, skills test!")
	require.NoError(t, err)

	require.Len(t, first, 64)
	assert.Equal(t, first, second)
	assert.InDelta(t, 1.0, math.Sqrt(dot(first, first)), 1e-6)
}

func TestHashingRelatedTextsAreCloser(t *testing.T) {
	t.Parallel()

	h, err := NewHashing(0)
	require.NoError(t, err)

	query, err := h.Embed(context.Background(), "Java developer with programming skills")
	require.NoError(t, err)
	related, err := h.Embed(context.Background(), "Java Programming Skills Test Skills assessment. Duration: 40 minutes")
	require.NoError(t, err)
	unrelated, err := h.Embed(context.Background(), "Retail cashier customer greeting")
	require.NoError(t, err)

	assert.Greater(t, dot(query, related), dot(query, unrelated))
}

func TestHashingBatchMatchesSingleCalls(t *testing.T) {
	t.Parallel()

	h, err := NewHashing(32)
	require.NoError(t, err)

	texts := []string{"first text", "second text", "third"}
	batch, err := h.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, batch, len(texts))

	for i, text := range texts {
		single, err := h.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestHashingRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := NewHashing(-1)
	require.Error(t, err)

	h, err := NewHashing(8)
	require.NoError(t, err)

	_, err = h.Embed(context.Background(), "   ")
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.EmbedBatch(ctx, []string{"text"})
	require.ErrorIs(t, err, context.Canceled)
}
