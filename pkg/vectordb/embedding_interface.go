package vectordb

import "context"

// EmbeddingService embeds free text into a dense vector for similarity
// search. Implementations own their client configuration.
type EmbeddingService interface {
	Embed(ctx context.Context, input string) ([]float32, error)
}
