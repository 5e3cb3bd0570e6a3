package embedding_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/service/embedding"
)

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, errors.New("not implemented")
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	if c.generateEmbeddingFn != nil {
		return c.generateEmbeddingFn(ctx, dimension, input)
	}
	out := make([][]float64, len(input))
	for i := range out {
		vec := make([]float64, dimension)
		vec[0] = float64(i) + 1
		out[i] = vec
	}
	return out, nil
}

func TestNewRequiresClient(t *testing.T) {
	_, err := embedding.New(nil)
	gt.Error(t, err)
}

func TestEmbedBatch(t *testing.T) {
	var gotDim int
	var gotInput []string
	client := &mockLLMClient{
		generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
			gotDim = dimension
			gotInput = input
			out := make([][]float64, len(input))
			for i := range out {
				vec := make([]float64, dimension)
				vec[0] = 0.25
				out[i] = vec
			}
			return out, nil
		},
	}

	emb, err := embedding.New(client)
	gt.NoError(t, err).Required()
	gt.Number(t, emb.Dimension()).Equal(model.EmbeddingDimension)

	vectors, err := emb.Embed(context.Background(), []string{"alpha", "beta"})
	gt.NoError(t, err).Required()

	gt.Number(t, gotDim).Equal(model.EmbeddingDimension)
	gt.Array(t, gotInput).Length(2)
	gt.Array(t, vectors).Length(2).Required()
	gt.Array(t, vectors[0]).Length(model.EmbeddingDimension)
	gt.Value(t, vectors[0][0]).Equal(float32(0.25))
}

func TestEmbedEmptyInput(t *testing.T) {
	emb, err := embedding.New(&mockLLMClient{})
	gt.NoError(t, err).Required()

	vectors, err := emb.Embed(context.Background(), nil)
	gt.NoError(t, err)
	gt.Array(t, vectors).Length(0)
}

func TestEmbedPropagatesFailure(t *testing.T) {
	client := &mockLLMClient{
		generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
			return nil, errors.New("quota exceeded")
		},
	}

	emb, err := embedding.New(client)
	gt.NoError(t, err).Required()

	_, err = emb.Embed(context.Background(), []string{"alpha"})
	gt.Error(t, err)
}

func TestEmbedCountMismatchIsError(t *testing.T) {
	client := &mockLLMClient{
		generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
			return [][]float64{{0.1}}, nil
		},
	}

	emb, err := embedding.New(client)
	gt.NoError(t, err).Required()

	_, err = emb.Embed(context.Background(), []string{"alpha", "beta"})
	gt.Error(t, err)
}
