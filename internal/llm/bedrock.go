package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/raphaelgruber/studybuddy/internal/config"
	"github.com/raphaelgruber/studybuddy/internal/metrics"
)

// BedrockEmbedder generates embeddings via Amazon Bedrock Titan text
// embeddings. Titan accepts one input per invocation, so batches are
// embedded sequentially.
type BedrockEmbedder struct {
	client    *bedrockruntime.Client
	modelName string
	dimension int
	retrier   Retrier
	collector *metrics.Collector
}

var _ Embedder = (*BedrockEmbedder)(nil)

type titanEmbedRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions"`
	Normalize  bool   `json:"normalize"`
}

type titanEmbedResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// NewBedrockEmbedder creates an embedder backed by Bedrock. Credentials come
// from the default AWS credential chain.
func NewBedrockEmbedder(cfg config.Config, collector *metrics.Collector) (*BedrockEmbedder, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.BedrockRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &BedrockEmbedder{
		client:    bedrockruntime.NewFromConfig(awsCfg),
		modelName: cfg.EmbedModel,
		dimension: cfg.EmbedDimension,
		retrier:   NewRetrier(cfg.RetryMaxAttempts, cfg.CallTimeout),
		collector: collector,
	}, nil
}

func (e *BedrockEmbedder) Model() string  { return e.modelName }
func (e *BedrockEmbedder) Dimension() int { return e.dimension }

func (e *BedrockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(titanEmbedRequest{
		InputText:  text,
		Dimensions: e.dimension,
		Normalize:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal titan request: %w", err)
	}

	start := time.Now()
	var out *bedrockruntime.InvokeModelOutput
	err = e.retrier.Do(ctx, "bedrock embed", func(ctx context.Context) error {
		var err error
		out, err = e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(e.modelName),
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
			Body:        body,
		})
		return err
	})
	e.collector.RecordTiming(metrics.OpEmbedding, time.Since(start))
	if err != nil {
		return nil, err
	}

	var resp titanEmbedResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("parse titan response: %w", err)
	}
	if len(resp.Embedding) != e.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d (model: %s)",
			len(resp.Embedding), e.dimension, e.modelName)
	}
	return resp.Embedding, nil
}

func (e *BedrockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}
