package google

import (
	"context"
	"errors"

	"github.com/google/generative-ai-go/genai"
	"github.com/w-h-a/mosaic/embedder"
	genaiopt "google.golang.org/api/option"
)

// googleEmbedder produces vectors through the Gemini embedContent endpoint.
type googleEmbedder struct {
	options embedder.Options
	client  *genai.Client
}

func (e *googleEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := e.client.EmbeddingModel(e.options.Model).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}

	if result == nil || result.Embedding == nil || len(result.Embedding.Values) == 0 {
		return nil, errors.New("google returned an empty embedding")
	}

	return result.Embedding.Values, nil
}

func NewEmbedder(opts ...embedder.Option) embedder.Embedder {
	options := embedder.NewOptions(opts...)

	client, err := genai.NewClient(
		context.Background(),
		genaiopt.WithAPIKey(options.ApiKey),
	)
	if err != nil {
		panic(err)
	}

	return &googleEmbedder{
		options: options,
		client:  client,
	}
}
