package vectordb

import "context"

// ScoredDocument is one stored label document returned by a similarity
// search, with its similarity score normalized to [0,1].
type ScoredDocument struct {
	Label string
	Score float64
}

// VectorDBConfig selects and configures a vector search backend.
type VectorDBConfig struct {
	Type             VectorDBBackendType
	Endpoint         string
	Collection       string
	EmbeddingService EmbeddingService
}

// VectorDBBackend is the common contract for vector similarity stores.
type VectorDBBackend interface {
	// Search returns up to topK stored labels most similar to the
	// query text, best first.
	Search(ctx context.Context, queryText string, topK int) ([]ScoredDocument, error)
}

// VectorDBBackendType names a supported backend implementation.
type VectorDBBackendType string

const (
	ChromaVectorDBType VectorDBBackendType = "chroma"
	MilvusVectorDBType VectorDBBackendType = "milvus"
)
