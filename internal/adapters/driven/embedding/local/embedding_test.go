package local

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestEmbeddingService_Deterministic(t *testing.T) {
	svc := NewEmbeddingService(64)
	a, err := svc.Embed(context.Background(), "Dhaka is the capital of Bangladesh.")
	require.NoError(t, err)
	b, err := svc.Embed(context.Background(), "Dhaka is the capital of Bangladesh.")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.InDelta(t, 1.0, math.Sqrt(dot(a, a)), 1e-5)
}

func TestEmbeddingService_SimilarTextsScoreHigher(t *testing.T) {
	svc := NewEmbeddingService(DefaultDimensions)
	ctx := context.Background()

	query, _ := svc.Embed(ctx, "What is the capital of Bangladesh?")
	related, _ := svc.Embed(ctx, "Dhaka is the capital of Bangladesh.")
	unrelated, _ := svc.Embed(ctx, "Photosynthesis converts sunlight into sugar.")

	assert.Greater(t, dot(query, related), dot(query, unrelated))
}

func TestEmbeddingService_EmptyText(t *testing.T) {
	vec, err := NewEmbeddingService(8).Embed(context.Background(), "  ?! ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vec)
}

func TestEmbeddingService_Bangla(t *testing.T) {
	svc := NewEmbeddingService(DefaultDimensions)
	tokens := tokenize("অনুপমের বয়স কত?")
	assert.Equal(t, []string{"অনুপমের", "বয়স", "কত"}, tokens)

	vecs, err := svc.EmbedBatch(context.Background(), []string{"অনুপম", "অনুপমের মামা"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Greater(t, dot(vecs[0], vecs[1]), 0.0)
}

func TestEmbeddingService_Metadata(t *testing.T) {
	svc := NewEmbeddingService(0)
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, "local/hashing-256", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}

func TestEmbeddingService_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEmbeddingService(8).EmbedBatch(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}
