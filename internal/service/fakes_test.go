package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/raphaelgruber/studybuddy/internal/db"
	"github.com/raphaelgruber/studybuddy/internal/index"
	"github.com/raphaelgruber/studybuddy/internal/models"
)

// fakeStore is an in-memory Store for pipeline tests.
type fakeStore struct {
	mu          sync.Mutex
	transcripts map[string]models.TranscriptRecord
	chunks      map[string]models.Chunk

	failDeleteChunks bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		transcripts: make(map[string]models.TranscriptRecord),
		chunks:      make(map[string]models.Chunk),
	}
}

var _ Store = (*fakeStore)(nil)

func (f *fakeStore) CreateTranscript(ctx context.Context, rec models.TranscriptRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.transcripts[rec.ID]; ok {
		return fmt.Errorf("transcript %s already exists", rec.ID)
	}
	f.transcripts[rec.ID] = rec
	return nil
}

func (f *fakeStore) GetTranscript(ctx context.Context, id string) (*models.TranscriptRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.transcripts[id]
	if !ok {
		return nil, fmt.Errorf("%w: transcript %s", models.ErrNotFound, id)
	}
	return &rec, nil
}

func (f *fakeStore) ListTranscripts(ctx context.Context, filter models.TranscriptFilter) ([]models.TranscriptRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TranscriptRecord
	for _, rec := range f.transcripts {
		if filter.CourseName != "" && rec.CourseName != filter.CourseName {
			continue
		}
		if filter.WeekNumber != nil {
			if rec.WeekNumber == nil || *rec.WeekNumber != *filter.WeekNumber {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeStore) DeleteTranscript(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.transcripts[id]
	delete(f.transcripts, id)
	return ok, nil
}

func (f *fakeStore) UpdateTranscriptStatus(ctx context.Context, id string, status models.TranscriptStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.transcripts[id]
	if !ok {
		return fmt.Errorf("%w: transcript %s", models.ErrNotFound, id)
	}
	rec.Status = status
	rec.FailedStage = nil
	f.transcripts[id] = rec
	return nil
}

func (f *fakeStore) MarkTranscriptFailed(ctx context.Context, id, stage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.transcripts[id]
	if !ok {
		return fmt.Errorf("%w: transcript %s", models.ErrNotFound, id)
	}
	rec.Status = models.StatusFailed
	rec.FailedStage = &stage
	f.transcripts[id] = rec
	return nil
}

func (f *fakeStore) SetBatchesIndexed(ctx context.Context, id string, batches int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.transcripts[id]
	if !ok {
		return fmt.Errorf("%w: transcript %s", models.ErrNotFound, id)
	}
	rec.BatchesIndexed = batches
	f.transcripts[id] = rec
	return nil
}

func (f *fakeStore) ListCourses(ctx context.Context) ([]db.CourseCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, rec := range f.transcripts {
		counts[rec.CourseName]++
	}
	var out []db.CourseCount
	for name, n := range counts {
		out = append(out, db.CourseCount{CourseName: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseName < out[j].CourseName })
	return out, nil
}

func (f *fakeStore) ListWeeks(ctx context.Context, courseName string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[int]bool)
	for _, rec := range f.transcripts {
		if rec.CourseName == courseName && rec.WeekNumber != nil {
			seen[*rec.WeekNumber] = true
		}
	}
	var weeks []int
	for w := range seen {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks, nil
}

func (f *fakeStore) CreateChunks(ctx context.Context, chunks []models.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range chunks {
		f.chunks[ch.ID] = ch
	}
	return nil
}

func (f *fakeStore) GetChunksByTranscript(ctx context.Context, transcriptID string) ([]models.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Chunk
	for _, ch := range f.chunks {
		if ch.TranscriptID == transcriptID {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (f *fakeStore) GetChunksByIDs(ctx context.Context, ids []string) (map[string]models.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]models.Chunk)
	for _, id := range ids {
		if ch, ok := f.chunks[id]; ok {
			out[id] = ch
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteChunksByTranscript(ctx context.Context, transcriptID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeleteChunks {
		return fmt.Errorf("simulated chunk delete failure")
	}
	for id, ch := range f.chunks {
		if ch.TranscriptID == transcriptID {
			delete(f.chunks, id)
		}
	}
	return nil
}

func (f *fakeStore) chunkCount(transcriptID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ch := range f.chunks {
		if ch.TranscriptID == transcriptID {
			n++
		}
	}
	return n
}

// fakeEmbedder produces deterministic vectors derived from the text. Batches
// can be made to fail after a set number of successful calls.
type fakeEmbedder struct {
	mu         sync.Mutex
	batchCalls int

	// failAfter > 0 fails every batch call after that many successes.
	failAfter int

	// fixedVector, when set, is returned for every text so all similarity
	// scores are equal.
	fixedVector []float32
}

const fakeDimension = 8

func (f *fakeEmbedder) Model() string  { return "fake-embed" }
func (f *fakeEmbedder) Dimension() int { return fakeDimension }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchCalls++
	calls := f.batchCalls
	failAfter := f.failAfter
	f.mu.Unlock()

	if failAfter > 0 && calls > failAfter {
		return nil, fmt.Errorf("%w: embed failed", models.ErrProviderUnavailable)
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if f.fixedVector != nil {
			out[i] = f.fixedVector
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(text))
		seed := h.Sum32()
		vec := make([]float32, fakeDimension)
		for j := range vec {
			seed = seed*1664525 + 1013904223
			vec[j] = float32(seed%1000) / 1000.0
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batchCalls
}

func (f *fakeEmbedder) disableFailure() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAfter = 0
}

// fakeGenerator records prompts and returns canned text.
type fakeGenerator struct {
	mu         sync.Mutex
	lastSystem string
	lastUser   string
	response   string
}

func (f *fakeGenerator) Model() string { return "fake-llm" }

func (f *fakeGenerator) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	if f.response == "" {
		return "generated response", nil
	}
	return f.response, nil
}

func (f *fakeGenerator) userPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastUser
}

// failingIndex wraps an Index and fails DeleteTranscript on demand.
type failingIndex struct {
	index.Index
	failDelete bool
}

func (f *failingIndex) DeleteTranscript(ctx context.Context, transcriptID string) error {
	if f.failDelete {
		return fmt.Errorf("simulated index delete failure")
	}
	return f.Index.DeleteTranscript(ctx, transcriptID)
}
