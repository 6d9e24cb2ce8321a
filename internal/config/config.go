package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifies an embedding or generation backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
	ProviderBedrock   Provider = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// Embedding provider
	EmbedProvider  Provider `yaml:"embed_provider"`
	EmbedModel     string   `yaml:"embed_model"`
	EmbedDimension int      `yaml:"embed_dimension"`

	// Generation provider
	LLMProvider Provider `yaml:"llm_provider"`
	LLMModel    string   `yaml:"llm_model"`

	// Provider credentials/endpoints
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OllamaHost      string `yaml:"ollama_host"`
	BedrockRegion   string `yaml:"bedrock_region"`

	// Ingestion
	ChunkTargetSize int `yaml:"chunk_target_size"`
	ChunkOverlap    int `yaml:"chunk_overlap"`
	EmbedBatchSize  int `yaml:"embed_batch_size"`

	// Retrieval
	MaxTopK       int `yaml:"max_top_k"`
	ContextBudget int `yaml:"context_budget"`

	// Provider retry
	RetryMaxAttempts int `yaml:"retry_max_attempts"`

	// CallTimeout bounds every provider/index call. Set via
	// STUDYBUDDY_CALL_TIMEOUT (Go duration syntax).
	CallTimeout time.Duration `yaml:"-"`

	// Server
	ServerPort string `yaml:"server_port"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration from an optional YAML file pointed to by
// STUDYBUDDY_CONFIG, then applies environment variable overrides.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("STUDYBUDDY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	cfg.LogLevel = parseLogLevel(getEnv("STUDYBUDDY_LOG_LEVEL", "INFO"))
	return cfg, nil
}

func defaults() Config {
	return Config{
		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "studybuddy",
		SurrealDBDatabase:  "transcripts",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		EmbedProvider:  ProviderOpenAI,
		EmbedModel:     "text-embedding-3-small",
		EmbedDimension: 1536,

		LLMProvider: ProviderOpenAI,
		LLMModel:    "gpt-4o-mini",

		OllamaHost:    "http://localhost:11434",
		BedrockRegion: "us-east-1",

		ChunkTargetSize: 500,
		ChunkOverlap:    50,
		EmbedBatchSize:  32,

		MaxTopK:       20,
		ContextBudget: 14000,

		RetryMaxAttempts: 4,
		CallTimeout:      60 * time.Second,

		ServerPort: "8384",
		LogFile:    "/tmp/studybuddy.log",
	}
}

func applyEnv(cfg *Config) {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setStr(&cfg.SurrealDBURL, "SURREALDB_URL")
	setStr(&cfg.SurrealDBNamespace, "SURREALDB_NAMESPACE")
	setStr(&cfg.SurrealDBDatabase, "SURREALDB_DATABASE")
	setStr(&cfg.SurrealDBUser, "SURREALDB_USER")
	setStr(&cfg.SurrealDBPass, "SURREALDB_PASS")
	setStr(&cfg.SurrealDBAuthLevel, "SURREALDB_AUTH_LEVEL")

	if v := os.Getenv("STUDYBUDDY_EMBED_PROVIDER"); v != "" {
		cfg.EmbedProvider = Provider(v)
	}
	setStr(&cfg.EmbedModel, "STUDYBUDDY_EMBED_MODEL")
	setInt(&cfg.EmbedDimension, "STUDYBUDDY_EMBED_DIMENSION")

	if v := os.Getenv("STUDYBUDDY_LLM_PROVIDER"); v != "" {
		cfg.LLMProvider = Provider(v)
	}
	setStr(&cfg.LLMModel, "STUDYBUDDY_LLM_MODEL")

	setStr(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	setStr(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setStr(&cfg.OllamaHost, "OLLAMA_HOST")
	setStr(&cfg.BedrockRegion, "AWS_REGION")

	setInt(&cfg.ChunkTargetSize, "STUDYBUDDY_CHUNK_TARGET_SIZE")
	setInt(&cfg.ChunkOverlap, "STUDYBUDDY_CHUNK_OVERLAP")
	setInt(&cfg.EmbedBatchSize, "STUDYBUDDY_EMBED_BATCH_SIZE")
	setInt(&cfg.MaxTopK, "STUDYBUDDY_MAX_TOP_K")
	setInt(&cfg.ContextBudget, "STUDYBUDDY_CONTEXT_BUDGET")
	setInt(&cfg.RetryMaxAttempts, "STUDYBUDDY_RETRY_MAX_ATTEMPTS")

	if v := os.Getenv("STUDYBUDDY_CALL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CallTimeout = d
		}
	}

	setStr(&cfg.ServerPort, "STUDYBUDDY_SERVER_PORT")
	setStr(&cfg.LogFile, "STUDYBUDDY_LOG_FILE")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
