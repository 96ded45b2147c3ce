package tiers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
)

type fakeEmbeddingService struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbeddingService) Embed(ctx context.Context, input string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[input]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

func TestEmbeddingEvaluate(t *testing.T) {
	service := &fakeEmbeddingService{
		vectors: map[string][]float32{
			"nike running shoes": {1, 0, 0},
			"Nike":               {0.9, 0.1, 0},
			"Adidas":             {0, 1, 0},
		},
	}
	provider := NewEmbeddingProvider(service)

	result := provider.Evaluate(context.Background(), webSearchRequest())

	assert.Equal(t, evidence.TierEmbedding, result.Tier)
	assert.Equal(t, evidence.StatusSucceeded, result.Status)
	assert.Equal(t, "Nike", result.Label)
	require.NotNil(t, result.Confidence)
	assert.Greater(t, *result.Confidence, 0.5)
	assert.True(t, result.InAllowedSet)
	assert.Len(t, result.Matches, 2)
}

func TestEmbeddingEvaluateServiceFailure(t *testing.T) {
	provider := NewEmbeddingProvider(&fakeEmbeddingService{err: errors.New("embedding endpoint unreachable")})
	result := provider.Evaluate(context.Background(), webSearchRequest())

	assert.Equal(t, evidence.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "embedding endpoint unreachable")
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Equal(t, 0.0, cosineSimilarity(nil, nil))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestNormalizeCosine(t *testing.T) {
	assert.InDelta(t, 1.0, normalizeCosine(1), 1e-9)
	assert.InDelta(t, 0.5, normalizeCosine(0), 1e-9)
	assert.InDelta(t, 0.0, normalizeCosine(-1), 1e-9)
}
