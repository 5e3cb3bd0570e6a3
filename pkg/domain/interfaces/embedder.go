package interfaces

import "context"

// Embedder defines the interface for the embedding service. Embed returns
// one fixed-dimensionality vector per input text, order-preserving.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
