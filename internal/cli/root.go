// Package cli provides the command-line interface for studybuddy.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/studybuddy/internal/config"
	"github.com/raphaelgruber/studybuddy/internal/db"
	"github.com/raphaelgruber/studybuddy/internal/index"
	"github.com/raphaelgruber/studybuddy/internal/llm"
	"github.com/raphaelgruber/studybuddy/internal/metrics"
	"github.com/raphaelgruber/studybuddy/internal/service"
	"github.com/raphaelgruber/studybuddy/internal/storage"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and db client
	cfg        config.Config
	dbClient   *db.Client
	collector  *metrics.Collector
	logCleanup func() error

	// Lazy-initialized LLM components
	embedder  llm.Embedder
	generator *llm.Generator
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "studybuddy",
	Short: "RAG pipeline for course lecture transcripts",
	Long: `Studybuddy ingests course lecture transcripts, indexes them for
semantic search, and answers questions grounded in the material.

Upload transcripts per course and week, then search them, ask
questions, generate summaries, quizzes, or practice exams.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger, cleanup := config.SetupLogger(cfg)
		slog.SetDefault(logger)
		logCleanup = cleanup

		collector = metrics.NewCollector()

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		dbClient, err = db.NewClient(ctx, dbCfg, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx, cfg.EmbedDimension); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logCleanup != nil {
			logCleanup()
		}
	},
}

// getIngestService builds the upload-side pipeline. Commands that embed
// pass requireLLM=true; delete and purge work without a provider.
func getIngestService(requireLLM bool) (*service.IngestService, error) {
	if requireLLM {
		if err := initLLM(); err != nil {
			return nil, err
		}
	}
	return service.NewIngestService(
		dbClient,
		storage.NewSurrealStore(dbClient),
		index.NewSurreal(dbClient, collector),
		embedder,
		service.IngestConfig{
			ChunkTargetSize: cfg.ChunkTargetSize,
			ChunkOverlap:    cfg.ChunkOverlap,
			EmbedBatchSize:  cfg.EmbedBatchSize,
		},
	), nil
}

// getRetriever builds the retrieval pipeline with lazy LLM init.
func getRetriever() (*service.Retriever, error) {
	if err := initLLM(); err != nil {
		return nil, err
	}
	return service.NewRetriever(dbClient, index.NewSurreal(dbClient, collector), embedder, cfg.MaxTopK), nil
}

// getQueryService builds the full query pipeline with lazy LLM init.
func getQueryService() (*service.QueryService, error) {
	retriever, err := getRetriever()
	if err != nil {
		return nil, err
	}
	return service.NewQueryService(retriever, service.NewSynthesizer(generator, cfg.ContextBudget)), nil
}

func initLLM() error {
	if embedder != nil {
		return nil
	}
	var err error
	embedder, err = llm.NewEmbedder(cfg, collector)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}
	generator, err = llm.NewGenerator(cfg, collector)
	if err != nil {
		return fmt.Errorf("init generator: %w", err)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(examCmd)
	rootCmd.AddCommand(statsCmd)
}
