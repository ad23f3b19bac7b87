package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/raphaelgruber/trackbank/internal/config"
)

// LangChain wraps langchaingo embeddings with dimension validation.
type LangChain struct {
	model     embeddings.Embedder
	dimension int
	modelName string
}

var _ Embedder = (*LangChain)(nil)

// NewLangChain creates an Ollama or OpenAI embedder based on configuration.
func NewLangChain(cfg config.Config) (*LangChain, error) {
	var model embeddings.Embedder
	var err error

	switch cfg.EmbeddingProvider {
	case config.ProviderOllama:
		llm, ollamaErr := ollama.New(
			ollama.WithModel(cfg.EmbeddingModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if ollamaErr != nil {
			return nil, fmt.Errorf("create ollama client: %w", ollamaErr)
		}
		model, err = embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("create ollama embedder: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		llm, openaiErr := openai.New(
			openai.WithToken(cfg.OpenAIKey),
			openai.WithEmbeddingModel(cfg.EmbeddingModel),
		)
		if openaiErr != nil {
			return nil, fmt.Errorf("create openai client: %w", openaiErr)
		}
		model, err = embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("create openai embedder: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}

	return NewLangChainFrom(model, cfg.EmbeddingModel, cfg.EmbeddingDimension), nil
}

// NewLangChainFrom wraps an existing langchaingo embedder.
func NewLangChainFrom(model embeddings.Embedder, name string, dimension int) *LangChain {
	return &LangChain{model: model, dimension: dimension, modelName: name}
}

// Embed generates an embedding vector for text.
func (e *LangChain) Embed(ctx context.Context, text string) ([]float32, error) {
	textLen := len(text)
	slog.Debug("embedding text", "model", e.modelName, "text_len", textLen)

	start := time.Now()
	vectors, err := e.model.EmbedDocuments(ctx, []string{text})
	duration := time.Since(start)

	if err != nil {
		slog.Warn("embedding failed", "model", e.modelName, "text_len", textLen, "duration_ms", duration.Milliseconds(), "error", err)
		return nil, fmt.Errorf("embed: %w", err)
	}

	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	embedding := vectors[0]
	if len(embedding) != e.dimension {
		return nil, fmt.Errorf("dimension mismatch: got %d, want %d (model: %s)", len(embedding), e.dimension, e.modelName)
	}

	return embedding, nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (e *LangChain) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := e.model.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if err := checkDimensions(vectors, len(texts), e.dimension); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Model returns the embedding model name.
func (e *LangChain) Model() string {
	return e.modelName
}

// Dimension returns the expected embedding dimension.
func (e *LangChain) Dimension() int {
	return e.dimension
}
