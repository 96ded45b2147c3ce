package vectordb

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/greglas75/coding-ui-sub005/pkg/observability"
)

const milvusLabelField = "label"

// MilvusVectorDBOptions defines config parameters for a Milvus
// connection.
type MilvusVectorDBOptions struct {
	Endpoint         string // e.g. "127.0.0.1:19530"
	Collection       string // e.g. "category_labels"
	EmbeddingService EmbeddingService
}

// MilvusVectorDB manages a Milvus client instance.
type MilvusVectorDB struct {
	client     client.Client
	collection string
	embedding  EmbeddingService
}

// NewMilvusVectorDB initializes a connection to Milvus.
func NewMilvusVectorDB(options MilvusVectorDBOptions) (*MilvusVectorDB, error) {
	ctx := context.Background()

	cli, err := client.NewGrpcClient(ctx, options.Endpoint)
	if err != nil {
		observability.Errorf("Milvus connect error: %v", err)
		return nil, err
	}

	observability.Debugf("Connected to Milvus at %s", options.Endpoint)
	return &MilvusVectorDB{
		client:     cli,
		collection: options.Collection,
		embedding:  options.EmbeddingService,
	}, nil
}

// Search embeds the query text and runs a cosine similarity search
// against the label collection.
func (m *MilvusVectorDB) Search(ctx context.Context, queryText string, topK int) ([]ScoredDocument, error) {
	if m.embedding == nil {
		return nil, fmt.Errorf("milvus backend requires an embedding service")
	}

	vec, err := m.embedding.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embedding query text: %w", err)
	}

	sp, err := entity.NewIndexFlatSearchParam()
	if err != nil {
		return nil, fmt.Errorf("building search params: %w", err)
	}

	results, err := m.client.Search(
		ctx,
		m.collection,
		nil,
		"",
		[]string{milvusLabelField},
		[]entity.Vector{entity.FloatVector(vec)},
		"vector",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search: %w", err)
	}

	docs := []ScoredDocument{}
	for _, result := range results {
		col := result.Fields.GetColumn(milvusLabelField)
		if col == nil {
			continue
		}
		for i := 0; i < result.ResultCount; i++ {
			label, err := col.GetAsString(i)
			if err != nil {
				observability.Warnf("Milvus result %d has no label field: %v", i, err)
				continue
			}
			docs = append(docs, ScoredDocument{
				Label: label,
				Score: normalizeCosine(float64(result.Scores[i])),
			})
		}
	}
	return docs, nil
}

// CreateOrLoadCollection creates the label collection when missing,
// builds its vector index, and loads it so it is searchable.
func (m *MilvusVectorDB) CreateOrLoadCollection(ctx context.Context, collectionName string, dim int) error {
	has, err := m.client.HasCollection(ctx, collectionName)
	if err != nil {
		return err
	}

	if !has {
		schema := &entity.Schema{
			CollectionName: collectionName,
			Description:    "Category label embeddings",
			AutoID:         false,
			Fields: []*entity.Field{
				{
					Name:       "id",
					DataType:   entity.FieldTypeInt64,
					PrimaryKey: true,
					AutoID:     false,
				},
				{
					Name:     "vector",
					DataType: entity.FieldTypeFloatVector,
					TypeParams: map[string]string{
						"dim": fmt.Sprintf("%d", dim),
					},
				},
				{
					Name:     milvusLabelField,
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": "1024",
					},
				},
			},
		}

		if err := m.client.CreateCollection(ctx, schema, 1); err != nil {
			observability.Errorf("Error creating Milvus collection: %v", err)
			return err
		}

		index, err := entity.NewIndexFlat(entity.COSINE)
		if err != nil {
			return fmt.Errorf("building vector index: %w", err)
		}
		if err := m.client.CreateIndex(ctx, collectionName, "vector", index, false); err != nil {
			return fmt.Errorf("creating vector index: %w", err)
		}
		observability.Infof("Created collection %s", collectionName)
	} else {
		observability.Infof("Collection %s already exists", collectionName)
	}

	if err := m.client.LoadCollection(ctx, collectionName, false); err != nil {
		return fmt.Errorf("loading collection %s: %w", collectionName, err)
	}
	return nil
}

// InsertLabels embeds the given labels and upserts them into the label
// collection, creating and loading the collection first when needed.
// This is the ingest path behind the seed command.
func (m *MilvusVectorDB) InsertLabels(ctx context.Context, labels []string) error {
	if m.embedding == nil {
		return fmt.Errorf("milvus backend requires an embedding service")
	}
	if len(labels) == 0 {
		return fmt.Errorf("no labels to insert")
	}

	vectors := make([][]float32, 0, len(labels))
	ids := make([]int64, 0, len(labels))
	for i, label := range labels {
		vec, err := m.embedding.Embed(ctx, label)
		if err != nil {
			return fmt.Errorf("embedding label %q: %w", label, err)
		}
		vectors = append(vectors, vec)
		ids = append(ids, int64(i))
	}

	dim := len(vectors[0])
	if err := m.CreateOrLoadCollection(ctx, m.collection, dim); err != nil {
		return err
	}

	idCol := entity.NewColumnInt64("id", ids)
	vectorCol := entity.NewColumnFloatVector("vector", dim, vectors)
	labelCol := entity.NewColumnVarChar(milvusLabelField, labels)
	if _, err := m.client.Insert(ctx, m.collection, "", idCol, vectorCol, labelCol); err != nil {
		return fmt.Errorf("milvus insert: %w", err)
	}
	observability.Infof("Inserted %d labels into collection %s", len(labels), m.collection)
	return nil
}

// Close releases the underlying client connection.
func (m *MilvusVectorDB) Close() error {
	return m.client.Close()
}

// normalizeCosine maps a cosine similarity in [-1,1] into [0,1].
func normalizeCosine(score float64) float64 {
	normalized := (score + 1) / 2
	if normalized < 0 {
		return 0
	}
	if normalized > 1 {
		return 1
	}
	return normalized
}
