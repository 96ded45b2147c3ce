package tiers

import (
	"context"
	"fmt"
	"math"

	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
	"github.com/greglas75/coding-ui-sub005/pkg/vectordb"
)

// EmbeddingProvider is the similarity fallback: it embeds the response
// text and compares it against the candidate label and the category's
// allowed labels directly, with no index in between. Cheap and always
// applicable, but weakly informative, which its trust weight reflects.
type EmbeddingProvider struct {
	embedding vectordb.EmbeddingService
}

// NewEmbeddingProvider builds the embedding fallback tier around an
// injected embedding service.
func NewEmbeddingProvider(embedding vectordb.EmbeddingService) *EmbeddingProvider {
	return &EmbeddingProvider{embedding: embedding}
}

func (p *EmbeddingProvider) Tier() evidence.TierID { return evidence.TierEmbedding }

// Evaluate reports the allowed label (or the candidate) whose embedding
// is closest to the response text.
func (p *EmbeddingProvider) Evaluate(ctx context.Context, req *evidence.ValidationRequest) evidence.TierResult {
	return run(ctx, p.Tier(), func(ctx context.Context) (evidence.TierResult, error) {
		candidates := []string{req.Label}
		for _, label := range req.Category.AllowedLabels {
			if !evidence.SameLabel(label, req.Label) {
				candidates = append(candidates, label)
			}
		}

		var queryVec []float32
		err := retryOnce(ctx, p.Tier(), func() error {
			var embedErr error
			queryVec, embedErr = p.embedding.Embed(ctx, req.QueryText())
			return embedErr
		})
		if err != nil {
			return evidence.TierResult{}, fmt.Errorf("embedding query text: %w", err)
		}

		matches := make([]evidence.Match, 0, len(candidates))
		best := evidence.Match{Score: -1}
		for _, label := range candidates {
			labelVec, err := p.embedding.Embed(ctx, label)
			if err != nil {
				return evidence.TierResult{}, fmt.Errorf("embedding label %q: %w", label, err)
			}
			score := normalizeCosine(cosineSimilarity(queryVec, labelVec))
			match := evidence.Match{Label: label, Score: score, Source: "embedding_similarity"}
			matches = append(matches, match)
			if score > best.Score {
				best = match
			}
		}

		return evidence.TierResult{
			Status:       evidence.StatusSucceeded,
			Label:        best.Label,
			Confidence:   evidence.Float64Ptr(best.Score),
			Matches:      matches,
			InAllowedSet: evidence.InAllowedSet(best.Label, req.Category.AllowedLabels),
		}, nil
	})
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// normalizeCosine maps cosine similarity in [-1,1] to [0,1].
func normalizeCosine(score float64) float64 {
	return clamp01((score + 1) / 2)
}
