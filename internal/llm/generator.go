package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/raphaelgruber/studybuddy/internal/config"
	"github.com/raphaelgruber/studybuddy/internal/metrics"
)

// Generator wraps a langchaingo model for text generation.
type Generator struct {
	llm       llms.Model
	modelName string
	retrier   Retrier
	collector *metrics.Collector
}

// NewGenerator creates a generation model based on configuration.
func NewGenerator(cfg config.Config, collector *metrics.Collector) (*Generator, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOpenAI, "":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Generator{
		llm:       model,
		modelName: cfg.LLMModel,
		retrier:   NewRetrier(cfg.RetryMaxAttempts, cfg.CallTimeout),
		collector: collector,
	}, nil
}

// Model returns the generation model name.
func (g *Generator) Model() string { return g.modelName }

// GenerateWithSystem generates text from a system prompt and a user prompt.
func (g *Generator) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	start := time.Now()
	var response *llms.ContentResponse
	err := g.retrier.Do(ctx, "generate", func(ctx context.Context) error {
		var err error
		response, err = g.llm.GenerateContent(ctx, messages)
		return err
	})
	g.collector.RecordTiming(metrics.OpGeneration, time.Since(start))
	if err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}
