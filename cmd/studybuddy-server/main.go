// Package main provides the HTTP API server for studybuddy.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/studybuddy/internal/config"
	"github.com/raphaelgruber/studybuddy/internal/db"
	"github.com/raphaelgruber/studybuddy/internal/index"
	"github.com/raphaelgruber/studybuddy/internal/llm"
	"github.com/raphaelgruber/studybuddy/internal/metrics"
	"github.com/raphaelgruber/studybuddy/internal/server"
	"github.com/raphaelgruber/studybuddy/internal/service"
	"github.com/raphaelgruber/studybuddy/internal/storage"
)

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, logCleanup := config.SetupLogger(cfg)
	slog.SetDefault(logger)
	defer logCleanup()

	slog.Info("starting studybuddy-server", "port", cfg.ServerPort)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	if err != nil {
		cancel()
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if *wipeDB || os.Getenv("STUDYBUDDY_WIPE_DB") == "true" {
		if err := dbClient.WipeData(ctx); err != nil {
			cancel()
			slog.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
	}

	if err := dbClient.InitSchema(ctx, cfg.EmbedDimension); err != nil {
		cancel()
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	cancel()
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	collector := metrics.NewCollector()

	embedder, err := llm.NewEmbedder(cfg, collector)
	if err != nil {
		slog.Error("failed to init embedder", "error", err)
		os.Exit(1)
	}
	generator, err := llm.NewGenerator(cfg, collector)
	if err != nil {
		slog.Error("failed to init generator", "error", err)
		os.Exit(1)
	}

	idx := index.NewSurreal(dbClient, collector)
	ingest := service.NewIngestService(dbClient, storage.NewSurrealStore(dbClient), idx, embedder, service.IngestConfig{
		ChunkTargetSize: cfg.ChunkTargetSize,
		ChunkOverlap:    cfg.ChunkOverlap,
		EmbedBatchSize:  cfg.EmbedBatchSize,
	})
	retriever := service.NewRetriever(dbClient, idx, embedder, cfg.MaxTopK)
	query := service.NewQueryService(retriever, service.NewSynthesizer(generator, cfg.ContextBudget))

	srv := server.New(ingest, query, dbClient, collector)

	go func() {
		slog.Info("API available", "url", "http://localhost:"+cfg.ServerPort+"/api")
		if err := srv.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
