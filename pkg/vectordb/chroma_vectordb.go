package vectordb

import (
	"context"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	defaultef "github.com/amikos-tech/chroma-go/pkg/embeddings/default_ef"

	"github.com/greglas75/coding-ui-sub005/pkg/observability"
)

// ChromaVectorDBOptions configures a Chroma connection.
type ChromaVectorDBOptions struct {
	Endpoint   string // Chroma server endpoint
	Tenant     string // Default tenant to use
	Database   string // Default database to use
	Collection string // Collection
}

// ChromaVectorDB manages a Chroma client instance.
type ChromaVectorDB struct {
	client     chroma.Client
	collection string
}

// NewChromaVectorDB builds a Chroma-backed vector store client.
func NewChromaVectorDB(options ChromaVectorDBOptions) (*ChromaVectorDB, error) {
	clientOptions := []chroma.ClientOption{
		chroma.WithBaseURL(options.Endpoint),
	}
	if options.Database != "" && options.Tenant != "" {
		clientOptions = append(clientOptions, chroma.WithDatabaseAndTenant(options.Database, options.Tenant))
	} else if options.Tenant != "" {
		clientOptions = append(clientOptions, chroma.WithTenant(options.Tenant))
	}
	c, err := chroma.NewHTTPClient(clientOptions...)
	if err != nil {
		observability.Errorf("Error creating chroma client: %v", err)
		return nil, err
	}
	v, err := c.GetVersion(context.Background())
	if err != nil {
		observability.Errorf("Error getting chroma client version: %v", err)
		return nil, err
	}
	observability.Debugf("Initialized Chroma client with API version %s", v)
	return &ChromaVectorDB{
		client:     c,
		collection: options.Collection,
	}, nil
}

// Search queries the collection with Chroma's own embedding function
// and converts distances into [0,1] similarity scores.
func (c *ChromaVectorDB) Search(ctx context.Context, queryText string, topK int) ([]ScoredDocument, error) {
	ef, closeef, err := defaultef.NewDefaultEmbeddingFunction()
	defer func() {
		if err := closeef(); err != nil {
			observability.Warnf("Error closing default embedding function: %v", err)
		}
	}()
	if err != nil {
		observability.Errorf("Error creating embedding function: %v", err)
		return nil, err
	}

	coll, err := c.client.GetCollection(ctx, c.collection, chroma.WithEmbeddingFunctionGet(ef))
	if err != nil {
		observability.Errorf("Error getting collection: %v", err)
		return nil, err
	}

	qr, err := coll.Query(ctx,
		chroma.WithQueryTexts(queryText),
		chroma.WithNResults(topK),
		chroma.WithIncludeQuery(chroma.IncludeDocuments, chroma.IncludeDistances),
	)
	if err != nil {
		observability.Errorf("Error querying collection: %v", err)
		return nil, err
	}

	groups := qr.GetDocumentsGroups()
	if len(groups) == 0 {
		return nil, nil
	}
	distances := qr.GetDistancesGroups()

	docs := make([]ScoredDocument, 0, len(groups[0]))
	for i, document := range groups[0] {
		score := 0.0
		if len(distances) > 0 && i < len(distances[0]) {
			// Chroma reports L2-style distance: smaller is closer.
			score = 1 / (1 + float64(distances[0][i]))
		}
		docs = append(docs, ScoredDocument{
			Label: document.ContentString(),
			Score: score,
		})
	}
	return docs, nil
}
