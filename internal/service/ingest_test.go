package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/raphaelgruber/studybuddy/internal/index"
	"github.com/raphaelgruber/studybuddy/internal/models"
	"github.com/raphaelgruber/studybuddy/internal/storage"
)

func intPtr(n int) *int { return &n }

// lectureText builds a sentence-heavy transcript of roughly n bytes.
func lectureText(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString("Gradient descent takes a step against the gradient of the loss. ")
		b.WriteString("The learning rate scales that step. Momentum smooths the updates over time. ")
	}
	return b.String()[:n]
}

type testRig struct {
	store    *fakeStore
	blobs    *storage.MemoryStore
	index    *index.Memory
	embedder *fakeEmbedder
	ingest   *IngestService
}

func newTestRig(embedder *fakeEmbedder, batchSize int) *testRig {
	rig := &testRig{
		store:    newFakeStore(),
		blobs:    storage.NewMemoryStore(),
		index:    index.NewMemory(),
		embedder: embedder,
	}
	rig.ingest = NewIngestService(rig.store, rig.blobs, rig.index, rig.embedder, IngestConfig{
		ChunkTargetSize: 500,
		ChunkOverlap:    50,
		EmbedBatchSize:  batchSize,
	})
	return rig
}

func TestIngestEndToEnd(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(&fakeEmbedder{}, 4)

	rec, err := rig.ingest.Ingest(ctx, IngestInput{
		CourseName:     "ML101",
		WeekNumber:     intPtr(1),
		TranscriptName: "Week1.txt",
		Text:           lectureText(5000),
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if rec.Status != models.StatusComplete {
		t.Errorf("Status = %q, want complete", rec.Status)
	}

	chunks := rig.store.chunkCount(rec.ID)
	if chunks < 10 || chunks > 12 {
		t.Errorf("chunk count = %d, want 10-12 for 5000 chars at 500/50", chunks)
	}
	if rig.index.Len() != chunks {
		t.Errorf("index entries = %d, want %d (one per chunk)", rig.index.Len(), chunks)
	}

	stored, err := rig.store.GetChunksByTranscript(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetChunksByTranscript failed: %v", err)
	}
	for i, ch := range stored {
		if ch.Seq != i {
			t.Errorf("chunk %d has Seq %d, want gapless ascending", i, ch.Seq)
		}
		if ch.CourseName != "ML101" || ch.WeekNumber == nil || *ch.WeekNumber != 1 {
			t.Errorf("chunk %d missing scope metadata: %+v", i, ch)
		}
	}

	// Raw text is durably stored.
	raw, err := rig.blobs.Get(ctx, rec.StoragePath)
	if err != nil {
		t.Fatalf("blob missing: %v", err)
	}
	if len(raw) != 5000 {
		t.Errorf("stored blob is %d bytes, want 5000", len(raw))
	}
}

func TestIngestInvalidInput(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(&fakeEmbedder{}, 4)

	tests := []struct {
		name  string
		input IngestInput
	}{
		{name: "empty text", input: IngestInput{CourseName: "ML101", TranscriptName: "x"}},
		{name: "missing course", input: IngestInput{TranscriptName: "x", Text: "some text"}},
		{name: "missing name", input: IngestInput{CourseName: "ML101", Text: "some text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rig.ingest.Ingest(ctx, tt.input)
			if !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("Ingest() error = %v, want ErrInvalidInput", err)
			}
		})
	}

	if len(rig.store.transcripts) != 0 {
		t.Errorf("invalid inputs must not leave transcript records, found %d", len(rig.store.transcripts))
	}
}

func TestIngestEmbedFailureThenResume(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{failAfter: 1}
	rig := newTestRig(embedder, 4)

	rec, err := rig.ingest.Ingest(ctx, IngestInput{
		CourseName:     "ML101",
		TranscriptName: "Week1.txt",
		Text:           lectureText(5000),
	})

	var failure *models.IngestFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Ingest() error = %v, want IngestFailure", err)
	}
	if failure.Stage != StageEmbed {
		t.Errorf("failure stage = %q, want embed", failure.Stage)
	}
	if !failure.Retryable() {
		t.Error("provider failure should be retryable")
	}

	stored, _ := rig.store.GetTranscript(ctx, rec.ID)
	if stored.Status != models.StatusFailed {
		t.Errorf("Status = %q, want failed", stored.Status)
	}
	if stored.FailedStage == nil || *stored.FailedStage != StageEmbed {
		t.Errorf("FailedStage = %v, want embed", stored.FailedStage)
	}
	if stored.BatchesIndexed != 1 {
		t.Errorf("BatchesIndexed = %d, want 1 (first batch was durable)", stored.BatchesIndexed)
	}

	callsBeforeResume := embedder.calls()
	embedder.disableFailure()

	resumed, err := rig.ingest.Resume(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if resumed.Status != models.StatusComplete {
		t.Errorf("Status after resume = %q, want complete", resumed.Status)
	}

	// 5000 chars at 500/50 gives 10-12 chunks, so 3 batches of 4. One batch
	// was durable before the failure; resume must embed only the other two.
	resumeCalls := embedder.calls() - callsBeforeResume
	if resumeCalls != 2 {
		t.Errorf("resume embedded %d batches, want 2 (skip the durable one)", resumeCalls)
	}

	// Resuming a complete transcript is a no-op.
	callsBefore := embedder.calls()
	if _, err := rig.ingest.Resume(ctx, rec.ID); err != nil {
		t.Fatalf("Resume of complete transcript failed: %v", err)
	}
	if embedder.calls() != callsBefore {
		t.Error("Resume of complete transcript should not re-embed")
	}
}

func TestIngestCancelledBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	embedder := &fakeEmbedder{}
	rig := newTestRig(embedder, 4)

	// Cancel as soon as the first batch has been embedded; the check between
	// batches must stop the run before it can reach complete.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for embedder.calls() == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	rec, err := rig.ingest.Ingest(ctx, IngestInput{
		CourseName:     "ML101",
		TranscriptName: "Week1.txt",
		Text:           lectureText(5000),
	})
	<-done

	if err == nil {
		// The race can finish all batches before cancel lands; only a
		// complete status with a reported error would be a bug.
		return
	}

	stored, getErr := rig.store.GetTranscript(context.Background(), rec.ID)
	if getErr != nil {
		t.Fatalf("GetTranscript failed: %v", getErr)
	}
	if stored.Status == models.StatusComplete {
		t.Error("cancelled ingestion must not end in complete status")
	}
}

func TestDeleteCascadesAndCleanupPending(t *testing.T) {
	ctx := context.Background()

	t.Run("full cascade", func(t *testing.T) {
		rig := newTestRig(&fakeEmbedder{}, 4)
		rec, err := rig.ingest.Ingest(ctx, IngestInput{
			CourseName:     "ML101",
			TranscriptName: "Week1.txt",
			Text:           lectureText(3000),
		})
		if err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}

		if err := rig.ingest.Delete(ctx, rec.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := rig.store.GetTranscript(ctx, rec.ID); !errors.Is(err, models.ErrNotFound) {
			t.Error("transcript record should be gone")
		}
		if rig.store.chunkCount(rec.ID) != 0 {
			t.Error("chunks should be gone")
		}
		if rig.index.Len() != 0 {
			t.Error("index entries should be gone")
		}
	})

	t.Run("cleanup pending and purge", func(t *testing.T) {
		rig := newTestRig(&fakeEmbedder{}, 4)
		broken := &failingIndex{Index: rig.index, failDelete: true}
		ingest := NewIngestService(rig.store, rig.blobs, broken, rig.embedder, IngestConfig{
			ChunkTargetSize: 500,
			ChunkOverlap:    50,
			EmbedBatchSize:  4,
		})

		rec, err := ingest.Ingest(ctx, IngestInput{
			CourseName:     "ML101",
			TranscriptName: "Week1.txt",
			Text:           lectureText(3000),
		})
		if err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}

		err = ingest.Delete(ctx, rec.ID)
		if !errors.Is(err, models.ErrCleanupPending) {
			t.Fatalf("Delete error = %v, want ErrCleanupPending", err)
		}
		// Metadata is gone even though vectors remain.
		if _, err := rig.store.GetTranscript(ctx, rec.ID); !errors.Is(err, models.ErrNotFound) {
			t.Error("transcript record should be gone despite cleanup failure")
		}
		if rig.index.Len() == 0 {
			t.Fatal("orphan vectors should remain for this test")
		}

		// Purge with a healthy index removes the orphans.
		broken.failDelete = false
		purged, err := ingest.PurgeOrphans(ctx)
		if err != nil {
			t.Fatalf("PurgeOrphans failed: %v", err)
		}
		if purged != 1 {
			t.Errorf("purged = %d, want 1", purged)
		}
		if rig.index.Len() != 0 {
			t.Error("index entries should be gone after purge")
		}

		// Idempotent.
		purged, err = ingest.PurgeOrphans(ctx)
		if err != nil {
			t.Fatalf("second PurgeOrphans failed: %v", err)
		}
		if purged != 0 {
			t.Errorf("second purge = %d, want 0", purged)
		}
	})
}

func TestDeleteMissingTranscript(t *testing.T) {
	rig := newTestRig(&fakeEmbedder{}, 4)
	err := rig.ingest.Delete(context.Background(), "no-such-id")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}
