// Package service composes the chunker, embedder, vector index and metadata
// store into the ingestion and query pipelines.
package service

import (
	"context"

	"github.com/raphaelgruber/studybuddy/internal/db"
	"github.com/raphaelgruber/studybuddy/internal/llm"
	"github.com/raphaelgruber/studybuddy/internal/models"
)

// Store is the metadata and chunk persistence the pipelines depend on.
// *db.Client satisfies it; tests substitute an in-memory fake.
type Store interface {
	CreateTranscript(ctx context.Context, rec models.TranscriptRecord) error
	GetTranscript(ctx context.Context, id string) (*models.TranscriptRecord, error)
	ListTranscripts(ctx context.Context, filter models.TranscriptFilter) ([]models.TranscriptRecord, error)
	DeleteTranscript(ctx context.Context, id string) (bool, error)
	UpdateTranscriptStatus(ctx context.Context, id string, status models.TranscriptStatus) error
	MarkTranscriptFailed(ctx context.Context, id, stage string) error
	SetBatchesIndexed(ctx context.Context, id string, batches int) error
	ListCourses(ctx context.Context) ([]db.CourseCount, error)
	ListWeeks(ctx context.Context, courseName string) ([]int, error)

	CreateChunks(ctx context.Context, chunks []models.Chunk) error
	GetChunksByTranscript(ctx context.Context, transcriptID string) ([]models.Chunk, error)
	GetChunksByIDs(ctx context.Context, ids []string) (map[string]models.Chunk, error)
	DeleteChunksByTranscript(ctx context.Context, transcriptID string) error
}

// TextGenerator is the generation capability the synthesizer depends on.
// *llm.Generator satisfies it.
type TextGenerator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Model() string
}

var (
	_ Store         = (*db.Client)(nil)
	_ TextGenerator = (*llm.Generator)(nil)
)
