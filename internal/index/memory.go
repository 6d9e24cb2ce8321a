package index

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/raphaelgruber/studybuddy/internal/models"
)

// Memory is an in-process Index doing brute-force cosine similarity.
// Useful for tests and local development without a database.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]models.EmbeddingEntry
}

var _ Index = (*Memory)(nil)

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]models.EmbeddingEntry)}
}

func (m *Memory) Upsert(ctx context.Context, entries []models.EmbeddingEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("%w: entry %s has empty vector", models.ErrInvalidInput, e.ChunkID)
		}
		m.entries[e.ChunkID] = e
	}
	return nil
}

func (m *Memory) Query(ctx context.Context, vector []float32, topK int, scope models.Scope) ([]Match, error) {
	if topK <= 0 {
		return []Match{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.entries))
	for _, e := range m.entries {
		if scope.CourseName != "" && e.Meta.CourseName != scope.CourseName {
			continue
		}
		if scope.WeekNumber != nil {
			if e.Meta.WeekNumber == nil || *e.Meta.WeekNumber != *scope.WeekNumber {
				continue
			}
		}
		matches = append(matches, Match{
			ChunkID: e.ChunkID,
			Score:   cosineSimilarity(vector, e.Vector),
			Meta:    e.Meta,
		})
	}

	sortMatches(matches)
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *Memory) DeleteTranscript(ctx context.Context, transcriptID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if e.Meta.TranscriptID == transcriptID {
			delete(m.entries, id)
		}
	}
	return nil
}

func (m *Memory) ListTranscriptIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for _, e := range m.entries {
		if !seen[e.Meta.TranscriptID] {
			seen[e.Meta.TranscriptID] = true
			ids = append(ids, e.Meta.TranscriptID)
		}
	}
	return ids, nil
}

// Len returns the number of entries in the index.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
