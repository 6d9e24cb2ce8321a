// Package index provides the vector index used for similarity retrieval.
// It stores chunk IDs, vectors and scope metadata only; chunk text lives in
// the chunk store.
package index

import (
	"context"

	"github.com/raphaelgruber/studybuddy/internal/models"
)

// Match is one ranked hit from a similarity query.
type Match struct {
	ChunkID string
	Score   float64
	Meta    models.EmbeddingMeta
}

// Index stores embedding vectors keyed by chunk ID and answers filtered
// nearest-neighbor queries.
//
// Implementations must return Query results sorted by score descending with
// ties broken by chunk ID ascending, so identical inputs always produce
// identical orderings.
type Index interface {
	// Upsert inserts or replaces entries by chunk ID. Re-indexing the same
	// chunk is idempotent.
	Upsert(ctx context.Context, entries []models.EmbeddingEntry) error

	// Query returns up to topK matches for the vector, restricted to the
	// scope. An empty scope searches everything. A scope matching nothing
	// yields an empty slice and a nil error.
	Query(ctx context.Context, vector []float32, topK int, scope models.Scope) ([]Match, error)

	// DeleteTranscript removes all entries belonging to a transcript.
	// Idempotent.
	DeleteTranscript(ctx context.Context, transcriptID string) error

	// ListTranscriptIDs returns the distinct transcript IDs present in the
	// index, used to reconcile orphans against the metadata store.
	ListTranscriptIDs(ctx context.Context) ([]string, error)
}
