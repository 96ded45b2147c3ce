package vectordb

import (
	"fmt"

	"github.com/greglas75/coding-ui-sub005/pkg/observability"
)

// NewVectorDBBackend builds the configured vector store backend.
func NewVectorDBBackend(config VectorDBConfig) (VectorDBBackend, error) {
	if err := ValidateVectorDBConfig(config); err != nil {
		return nil, fmt.Errorf("invalid vector DB config: %w", err)
	}
	switch config.Type {
	case ChromaVectorDBType:
		observability.Debugf("Creating chroma backend - Endpoint: %s, Collection: %s", config.Endpoint, config.Collection)
		backend, err := NewChromaVectorDB(ChromaVectorDBOptions{
			Endpoint:   config.Endpoint,
			Collection: config.Collection,
		})
		if err != nil {
			observability.Errorf("Error instantiating Chroma DB: %v", err)
			return nil, err
		}
		return backend, nil
	case MilvusVectorDBType:
		observability.Debugf("Creating milvus backend - Endpoint: %s, Collection: %s", config.Endpoint, config.Collection)
		backend, err := NewMilvusVectorDB(MilvusVectorDBOptions{
			Endpoint:         config.Endpoint,
			Collection:       config.Collection,
			EmbeddingService: config.EmbeddingService,
		})
		if err != nil {
			observability.Errorf("Error instantiating Milvus DB: %v", err)
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("vector DB type %s is not implemented", config.Type)
	}
}

// ValidateVectorDBConfig checks backend-independent invariants.
func ValidateVectorDBConfig(config VectorDBConfig) error {
	switch config.Type {
	case ChromaVectorDBType, MilvusVectorDBType:
		if config.Endpoint == "" {
			return fmt.Errorf("endpoint not specified")
		}
		if config.Collection == "" {
			return fmt.Errorf("collection not specified")
		}
	default:
		return fmt.Errorf("vector DB type not specified")
	}
	return nil
}
