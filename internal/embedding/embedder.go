// Package embedding provides text embedding generation with multiple backend support.
package embedding

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/trackbank/internal/config"
)

// Embedder defines the interface for text embedding providers.
// Implementations include Ollama and OpenAI (via langchaingo) and Amazon Bedrock.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension returns the embedding vector dimension.
	// Must match the dimension of every embedding stored in the catalog.
	Dimension() int
}

// New creates the configured Embedder, wrapped in a query cache when a TTL is set.
func New(ctx context.Context, cfg config.Config) (Embedder, error) {
	var (
		e   Embedder
		err error
	)

	switch cfg.EmbeddingProvider {
	case config.ProviderOllama, config.ProviderOpenAI:
		e, err = NewLangChain(cfg)
	case config.ProviderBedrock:
		e, err = NewBedrock(ctx, cfg.AWSRegion, cfg.EmbeddingModel, cfg.EmbeddingDimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.EmbeddingProvider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.EmbedCacheTTL > 0 {
		e = NewCached(e, cfg.EmbedCacheTTL)
	}
	return e, nil
}

// checkDimensions validates a batch response against the expected count and dimension.
func checkDimensions(vectors [][]float32, count, dim int) error {
	if len(vectors) != count {
		return fmt.Errorf("count mismatch: got %d, want %d", len(vectors), count)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("embedding %d dimension mismatch: got %d, want %d", i, len(v), dim)
		}
	}
	return nil
}
