package embedding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
)

// Client produces fixed-length vectors for text batches through the LLM
// client. It implements interfaces.Embedder.
type Client struct {
	llmClient gollem.LLMClient
	dimension int
}

// New creates an embedding gateway with the provided LLM client
func New(llmClient gollem.LLMClient) (*Client, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	return &Client{
		llmClient: llmClient,
		dimension: model.EmbeddingDimension,
	}, nil
}

// Dimension returns the fixed dimensionality of produced vectors
func (c *Client) Dimension() int {
	return c.dimension
}

// Embed generates one vector per input text, order-preserving. The whole
// batch is submitted in a single call to bound per-call overhead. A
// failure propagates to the caller, which decides on degraded handling.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings, err := c.llmClient.GenerateEmbedding(ctx, c.dimension, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embeddings", goerr.V("batchSize", len(texts)))
	}

	if len(embeddings) != len(texts) {
		return nil, goerr.New("embedding count does not match input count",
			goerr.V("inputs", len(texts)), goerr.V("outputs", len(embeddings)))
	}

	vectors := make([][]float32, len(embeddings))
	for i, emb := range embeddings {
		v := make([]float32, len(emb))
		for j, val := range emb {
			v[j] = float32(val)
		}
		vectors[i] = v
	}

	return vectors, nil
}
