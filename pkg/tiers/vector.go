package tiers

import (
	"context"
	"fmt"

	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
	"github.com/greglas75/coding-ui-sub005/pkg/vectordb"
)

const defaultVectorTopK = 5

// VectorProvider wraps a vector similarity store. It searches the label
// collection with the response text and reports the best-matching
// stored label.
type VectorProvider struct {
	backend vectordb.VectorDBBackend
	topK    int
}

// NewVectorProvider builds the vector-similarity tier around an
// injected backend.
func NewVectorProvider(backend vectordb.VectorDBBackend, cfg config.VectorProviderConfig) *VectorProvider {
	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultVectorTopK
	}
	return &VectorProvider{backend: backend, topK: topK}
}

func (p *VectorProvider) Tier() evidence.TierID { return evidence.TierVectorSimilarity }

// Evaluate searches for stored labels similar to the response text. The
// top hit's similarity score is the tier confidence.
func (p *VectorProvider) Evaluate(ctx context.Context, req *evidence.ValidationRequest) evidence.TierResult {
	return run(ctx, p.Tier(), func(ctx context.Context) (evidence.TierResult, error) {
		var docs []vectordb.ScoredDocument
		err := retryOnce(ctx, p.Tier(), func() error {
			var searchErr error
			docs, searchErr = p.backend.Search(ctx, req.QueryText(), p.topK)
			return searchErr
		})
		if err != nil {
			return evidence.TierResult{}, fmt.Errorf("vector search: %w", err)
		}
		if len(docs) == 0 {
			// A reachable index with no hits is still an answer.
			return evidence.TierResult{Status: evidence.StatusSucceeded}, nil
		}

		matches := make([]evidence.Match, 0, len(docs))
		for _, doc := range docs {
			matches = append(matches, evidence.Match{
				Label:  doc.Label,
				Score:  doc.Score,
				Source: "vector_index",
			})
		}

		top := docs[0]
		return evidence.TierResult{
			Status:       evidence.StatusSucceeded,
			Label:        top.Label,
			Confidence:   evidence.Float64Ptr(top.Score),
			Matches:      matches,
			InAllowedSet: evidence.InAllowedSet(top.Label, req.Category.AllowedLabels),
		}, nil
	})
}
