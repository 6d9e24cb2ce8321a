package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/studybuddy/internal/index"
	"github.com/raphaelgruber/studybuddy/internal/llm"
	"github.com/raphaelgruber/studybuddy/internal/models"
)

// Retriever embeds a query and returns the most similar chunks within a scope.
type Retriever struct {
	store    Store
	index    index.Index
	embedder llm.Embedder
	maxTopK  int
}

// NewRetriever creates a retriever. maxTopK caps result counts to bound
// downstream prompt size.
func NewRetriever(store Store, idx index.Index, embedder llm.Embedder, maxTopK int) *Retriever {
	if maxTopK <= 0 {
		maxTopK = 20
	}
	return &Retriever{store: store, index: idx, embedder: embedder, maxTopK: maxTopK}
}

// Retrieve returns up to topK chunks ranked by similarity to the query,
// restricted to the scope. A scope matching nothing yields an empty slice and
// a nil error. Result order follows index score order exactly.
func (r *Retriever) Retrieve(ctx context.Context, query string, scope models.Scope, topK int) ([]models.RetrievalResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", models.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = 10
	}
	if topK > r.maxTopK {
		topK = r.maxTopK
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := r.index.Query(ctx, vector, topK, scope)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []models.RetrievalResult{}, nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ChunkID
	}
	chunks, err := r.store.GetChunksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve chunk text: %w", err)
	}

	results := make([]models.RetrievalResult, 0, len(matches))
	for _, m := range matches {
		ch, ok := chunks[m.ChunkID]
		if !ok {
			// Orphaned index entry; skip it rather than returning an empty
			// text. PurgeOrphans reconciles these.
			slog.Warn("index entry has no chunk", "chunk", m.ChunkID)
			continue
		}
		results = append(results, models.RetrievalResult{
			ChunkID:      m.ChunkID,
			Text:         ch.Text,
			Score:        m.Score,
			TranscriptID: m.Meta.TranscriptID,
			CourseName:   m.Meta.CourseName,
			WeekNumber:   m.Meta.WeekNumber,
		})
	}
	return results, nil
}
