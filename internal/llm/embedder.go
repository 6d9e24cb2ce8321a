// Package llm provides embedding and text generation backed by external
// providers, with dimension validation and bounded retries.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/raphaelgruber/studybuddy/internal/config"
	"github.com/raphaelgruber/studybuddy/internal/metrics"
)

// Embedder defines the interface for text embedding providers.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, order-preserving.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension returns the embedding vector dimension.
	// Must match the HNSW index dimension in the SurrealDB schema.
	Dimension() int
}

// NewEmbedder creates an Embedder based on configuration. Transient provider
// failures are retried with exponential backoff before surfacing.
func NewEmbedder(cfg config.Config, collector *metrics.Collector) (Embedder, error) {
	retrier := NewRetrier(cfg.RetryMaxAttempts, cfg.CallTimeout)

	switch cfg.EmbedProvider {
	case config.ProviderOpenAI, "":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		llm, err := openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithEmbeddingModel(cfg.EmbedModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		model, err := embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("create openai embedder: %w", err)
		}
		return &langchainEmbedder{
			model:     model,
			modelName: cfg.EmbedModel,
			dimension: cfg.EmbedDimension,
			retrier:   retrier,
			collector: collector,
		}, nil

	case config.ProviderOllama:
		llm, err := ollama.New(
			ollama.WithModel(cfg.EmbedModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		model, err := embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("create ollama embedder: %w", err)
		}
		return &langchainEmbedder{
			model:     model,
			modelName: cfg.EmbedModel,
			dimension: cfg.EmbedDimension,
			retrier:   retrier,
			collector: collector,
		}, nil

	case config.ProviderBedrock:
		return NewBedrockEmbedder(cfg, collector)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbedProvider)
	}
}

// langchainEmbedder wraps langchaingo embeddings with dimension validation.
type langchainEmbedder struct {
	model     embeddings.Embedder
	modelName string
	dimension int
	retrier   Retrier
	collector *metrics.Collector
}

var _ Embedder = (*langchainEmbedder)(nil)

func (e *langchainEmbedder) Model() string  { return e.modelName }
func (e *langchainEmbedder) Dimension() int { return e.dimension }

func (e *langchainEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vectors[0], nil
}

func (e *langchainEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	slog.Debug("embedding batch", "model", e.modelName, "texts", len(texts))
	start := time.Now()

	var vectors [][]float32
	err := e.retrier.Do(ctx, "embed", func(ctx context.Context) error {
		var err error
		vectors, err = e.model.EmbedDocuments(ctx, texts)
		return err
	})
	e.collector.RecordTiming(metrics.OpEmbedding, time.Since(start))
	if err != nil {
		return nil, err
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) != e.dimension {
			return nil, fmt.Errorf("embedding %d dimension mismatch: got %d, want %d (model: %s)",
				i, len(v), e.dimension, e.modelName)
		}
	}

	return vectors, nil
}
