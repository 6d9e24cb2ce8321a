package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/raphaelgruber/studybuddy/internal/chunker"
	"github.com/raphaelgruber/studybuddy/internal/index"
	"github.com/raphaelgruber/studybuddy/internal/llm"
	"github.com/raphaelgruber/studybuddy/internal/models"
	"github.com/raphaelgruber/studybuddy/internal/storage"
)

// Pipeline stage names recorded on failure so a resume knows where to pick up.
const (
	StageChunk = "chunk"
	StageEmbed = "embed"
	StageIndex = "index"
)

// IngestService turns an uploaded transcript into a chunked, embedded,
// indexed artifact.
type IngestService struct {
	store    Store
	blobs    storage.BlobStore
	index    index.Index
	embedder llm.Embedder

	chunkTargetSize int
	chunkOverlap    int
	batchSize       int
}

// IngestConfig holds the chunking and batching parameters for ingestion.
type IngestConfig struct {
	ChunkTargetSize int
	ChunkOverlap    int
	EmbedBatchSize  int
}

// NewIngestService creates an ingest service.
func NewIngestService(store Store, blobs storage.BlobStore, idx index.Index, embedder llm.Embedder, cfg IngestConfig) *IngestService {
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 32
	}
	return &IngestService{
		store:           store,
		blobs:           blobs,
		index:           idx,
		embedder:        embedder,
		chunkTargetSize: cfg.ChunkTargetSize,
		chunkOverlap:    cfg.ChunkOverlap,
		batchSize:       cfg.EmbedBatchSize,
	}
}

// IngestInput is one transcript upload.
type IngestInput struct {
	CourseName     string
	WeekNumber     *int
	TranscriptName string
	Text           string
}

// Ingest runs the full pipeline for a new transcript: store the raw text,
// create the metadata record, chunk, then embed and index batch by batch in
// sequence order. On a mid-pipeline failure the record is marked failed with
// the stage recorded, so Resume can continue from the last durable batch.
func (s *IngestService) Ingest(ctx context.Context, in IngestInput) (*models.TranscriptRecord, error) {
	if in.Text == "" {
		return nil, fmt.Errorf("%w: empty transcript text", models.ErrInvalidInput)
	}
	if in.CourseName == "" {
		return nil, fmt.Errorf("%w: course name required", models.ErrInvalidInput)
	}
	if in.TranscriptName == "" {
		return nil, fmt.Errorf("%w: transcript name required", models.ErrInvalidInput)
	}

	id := uuid.NewString()
	path := "transcripts/" + id + ".txt"

	if err := s.blobs.Put(ctx, path, []byte(in.Text)); err != nil {
		return nil, fmt.Errorf("store transcript text: %w", err)
	}

	rec := models.TranscriptRecord{
		ID:             id,
		CourseName:     in.CourseName,
		WeekNumber:     in.WeekNumber,
		TranscriptName: in.TranscriptName,
		StoragePath:    path,
		Status:         models.StatusReceived,
	}
	if err := s.store.CreateTranscript(ctx, rec); err != nil {
		return nil, fmt.Errorf("create transcript record: %w", err)
	}

	slog.Info("transcript received",
		"transcript", id, "course", in.CourseName, "bytes", len(in.Text))

	chunks, err := s.chunkTranscript(rec, in.Text)
	if err != nil {
		// Nothing durably indexed yet; roll the record back entirely.
		_, _ = s.store.DeleteTranscript(ctx, id)
		_ = s.blobs.Delete(ctx, path)
		return nil, &models.IngestFailure{TranscriptID: id, Stage: StageChunk, Err: err}
	}

	if err := s.store.CreateChunks(ctx, chunks); err != nil {
		_, _ = s.store.DeleteTranscript(ctx, id)
		_ = s.blobs.Delete(ctx, path)
		return nil, &models.IngestFailure{TranscriptID: id, Stage: StageChunk, Err: err}
	}
	if err := s.store.UpdateTranscriptStatus(ctx, id, models.StatusChunked); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	rec.Status = models.StatusChunked

	if err := s.indexBatches(ctx, &rec, chunks, 0); err != nil {
		return &rec, err
	}
	return &rec, nil
}

// Resume continues a failed or interrupted ingestion from the last durably
// indexed batch. Completed transcripts are returned unchanged.
func (s *IngestService) Resume(ctx context.Context, transcriptID string) (*models.TranscriptRecord, error) {
	rec, err := s.store.GetTranscript(ctx, transcriptID)
	if err != nil {
		return nil, err
	}
	if rec.Status == models.StatusComplete {
		return rec, nil
	}

	chunks, err := s.store.GetChunksByTranscript(ctx, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}

	// Failed before any chunks were persisted: re-chunk from the stored text.
	if len(chunks) == 0 {
		raw, err := s.blobs.Get(ctx, rec.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("load transcript text: %w", err)
		}
		chunks, err = s.chunkTranscript(*rec, string(raw))
		if err != nil {
			return nil, &models.IngestFailure{TranscriptID: rec.ID, Stage: StageChunk, Err: err}
		}
		if err := s.store.CreateChunks(ctx, chunks); err != nil {
			return nil, &models.IngestFailure{TranscriptID: rec.ID, Stage: StageChunk, Err: err}
		}
		if err := s.store.UpdateTranscriptStatus(ctx, rec.ID, models.StatusChunked); err != nil {
			return nil, fmt.Errorf("update status: %w", err)
		}
	}

	slog.Info("resuming ingestion",
		"transcript", rec.ID, "batches_indexed", rec.BatchesIndexed)

	if err := s.indexBatches(ctx, rec, chunks, rec.BatchesIndexed); err != nil {
		return rec, err
	}
	return rec, nil
}

// Delete removes a transcript. The metadata record disappears atomically;
// chunk and vector cleanup is best-effort. If cleanup fails the error wraps
// models.ErrCleanupPending and PurgeOrphans will finish the job later.
func (s *IngestService) Delete(ctx context.Context, transcriptID string) error {
	rec, err := s.store.GetTranscript(ctx, transcriptID)
	if err != nil {
		return err
	}

	deleted, err := s.store.DeleteTranscript(ctx, transcriptID)
	if err != nil {
		return fmt.Errorf("delete transcript record: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: transcript %s", models.ErrNotFound, transcriptID)
	}

	var cleanupErr error
	if err := s.index.DeleteTranscript(ctx, transcriptID); err != nil {
		cleanupErr = errors.Join(cleanupErr, err)
	}
	if err := s.store.DeleteChunksByTranscript(ctx, transcriptID); err != nil {
		cleanupErr = errors.Join(cleanupErr, err)
	}
	if err := s.blobs.Delete(ctx, rec.StoragePath); err != nil {
		cleanupErr = errors.Join(cleanupErr, err)
	}
	if cleanupErr != nil {
		slog.Warn("transcript cleanup incomplete", "transcript", transcriptID, "error", cleanupErr)
		return fmt.Errorf("%w: %v", models.ErrCleanupPending, cleanupErr)
	}
	return nil
}

// PurgeOrphans removes index entries and chunks whose transcript record no
// longer exists. Idempotent; safe to run at any time.
func (s *IngestService) PurgeOrphans(ctx context.Context) (int, error) {
	ids, err := s.index.ListTranscriptIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list indexed transcripts: %w", err)
	}

	purged := 0
	for _, id := range ids {
		_, err := s.store.GetTranscript(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, models.ErrNotFound) {
			return purged, err
		}

		if err := s.index.DeleteTranscript(ctx, id); err != nil {
			return purged, fmt.Errorf("purge index entries for %s: %w", id, err)
		}
		if err := s.store.DeleteChunksByTranscript(ctx, id); err != nil {
			return purged, fmt.Errorf("purge chunks for %s: %w", id, err)
		}
		slog.Info("purged orphaned transcript data", "transcript", id)
		purged++
	}
	return purged, nil
}

// chunkTranscript runs the chunker and attaches IDs and scope metadata.
// Chunk IDs are deterministic (<transcript id>-<seq>) so re-ingestion and
// index upserts are idempotent.
func (s *IngestService) chunkTranscript(rec models.TranscriptRecord, text string) ([]models.Chunk, error) {
	fragments, err := chunker.Chunk(text, s.chunkTargetSize, s.chunkOverlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, 0, len(fragments))
	for _, f := range fragments {
		chunks = append(chunks, models.Chunk{
			ID:           fmt.Sprintf("%s-%d", rec.ID, f.Seq),
			TranscriptID: rec.ID,
			Text:         f.Text,
			Seq:          f.Seq,
			CharStart:    f.Start,
			CharEnd:      f.End,
			OverlapLen:   f.OverlapLen,
			CourseName:   rec.CourseName,
			WeekNumber:   rec.WeekNumber,
		})
	}
	return chunks, nil
}

// indexBatches embeds and upserts chunks in sequence order, skipping batches
// already recorded as indexed. Each batch is durable before the next starts,
// so cancellation or failure between batches is resumable.
func (s *IngestService) indexBatches(ctx context.Context, rec *models.TranscriptRecord, chunks []models.Chunk, skipBatches int) error {
	batches := batchChunks(chunks, s.batchSize)

	for i := skipBatches; i < len(batches); i++ {
		if err := ctx.Err(); err != nil {
			return s.fail(rec, StageEmbed, err)
		}
		batch := batches[i]

		texts := make([]string, len(batch))
		for j, ch := range batch {
			texts[j] = ch.Text
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return s.fail(rec, StageEmbed, err)
		}

		entries := make([]models.EmbeddingEntry, len(batch))
		for j, ch := range batch {
			entries[j] = models.EmbeddingEntry{
				ChunkID: ch.ID,
				Vector:  vectors[j],
				Meta: models.EmbeddingMeta{
					TranscriptID: ch.TranscriptID,
					CourseName:   ch.CourseName,
					WeekNumber:   ch.WeekNumber,
				},
			}
		}
		if err := s.index.Upsert(ctx, entries); err != nil {
			return s.fail(rec, StageIndex, err)
		}

		if err := s.store.SetBatchesIndexed(ctx, rec.ID, i+1); err != nil {
			return fmt.Errorf("record batch progress: %w", err)
		}
		rec.BatchesIndexed = i + 1
	}

	// Batches interleave embedding and indexing, so the embedded and indexed
	// transitions land together once the final batch is durable.
	for _, status := range []models.TranscriptStatus{models.StatusEmbedded, models.StatusIndexed, models.StatusComplete} {
		if err := s.store.UpdateTranscriptStatus(ctx, rec.ID, status); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		rec.Status = status
	}

	slog.Info("transcript ingested",
		"transcript", rec.ID, "chunks", len(chunks), "batches", len(batches))
	return nil
}

// fail records a stage failure against the transcript and returns the
// stage-tagged error. Already indexed batches stay durable.
func (s *IngestService) fail(rec *models.TranscriptRecord, stage string, err error) error {
	// Persist with a fresh context: the caller's may already be cancelled.
	if markErr := s.store.MarkTranscriptFailed(context.Background(), rec.ID, stage); markErr != nil {
		slog.Error("failed to record ingestion failure",
			"transcript", rec.ID, "stage", stage, "error", markErr)
	}
	rec.Status = models.StatusFailed
	return &models.IngestFailure{TranscriptID: rec.ID, Stage: stage, Err: err}
}

func batchChunks(chunks []models.Chunk, size int) [][]models.Chunk {
	var batches [][]models.Chunk
	for start := 0; start < len(chunks); start += size {
		end := start + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}
	return batches
}
