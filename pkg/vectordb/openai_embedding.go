package vectordb

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/greglas75/coding-ui-sub005/pkg/observability"
)

// NewOpenAIEmbeddingServiceOptions configures an OpenAI-compatible
// embedding endpoint.
type NewOpenAIEmbeddingServiceOptions struct {
	Endpoint string
	APIKey   string
	Model    string
}

// OpenAIEmbeddingService embeds text through an OpenAI-compatible API.
type OpenAIEmbeddingService struct {
	client openai.EmbeddingService
	model  string
}

// NewOpenAIEmbeddingService builds an embedding service from options.
func NewOpenAIEmbeddingService(options NewOpenAIEmbeddingServiceOptions) *OpenAIEmbeddingService {
	opts := []option.RequestOption{}
	if options.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(options.Endpoint))
	}
	if options.APIKey != "" {
		opts = append(opts, option.WithAPIKey(options.APIKey))
	}
	model := options.Model
	if model == "" {
		model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	return &OpenAIEmbeddingService{
		client: openai.NewEmbeddingService(opts...),
		model:  model,
	}
}

// Embed returns the embedding vector for a single input string.
func (s *OpenAIEmbeddingService) Embed(ctx context.Context, input string) ([]float32, error) {
	res, err := s.client.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{input}},
		Model: openai.EmbeddingModel(s.model),
	})
	if err != nil {
		observability.Errorf("Error creating embedding: %v", err)
		return nil, err
	}
	vec := make([]float32, len(res.Data[0].Embedding))
	for i, v := range res.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
