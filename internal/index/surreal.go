package index

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/studybuddy/internal/db"
	"github.com/raphaelgruber/studybuddy/internal/metrics"
	"github.com/raphaelgruber/studybuddy/internal/models"
)

// Surreal is an Index backed by the SurrealDB embedding table and its HNSW
// index.
type Surreal struct {
	client    *db.Client
	collector *metrics.Collector
}

var _ Index = (*Surreal)(nil)

// NewSurreal creates a SurrealDB-backed index.
func NewSurreal(client *db.Client, collector *metrics.Collector) *Surreal {
	return &Surreal{client: client, collector: collector}
}

func (s *Surreal) Upsert(ctx context.Context, entries []models.EmbeddingEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]any{
			"chunk_id":      e.ChunkID,
			"vector":        e.Vector,
			"transcript_id": e.Meta.TranscriptID,
			"course_name":   e.Meta.CourseName,
			"week_number":   e.Meta.WeekNumber,
		})
	}

	start := time.Now()
	_, err := surrealdb.Query[any](ctx, s.client.DB(), `
		FOR $e IN $entries {
			UPSERT type::record("embedding", $e.chunk_id) SET
				vector = $e.vector,
				transcript_id = $e.transcript_id,
				course_name = $e.course_name,
				week_number = $e.week_number
		};
	`, map[string]any{"entries": rows})
	s.collector.RecordTiming(metrics.OpIndexUpsert, time.Since(start))
	if err != nil {
		return fmt.Errorf("index upsert: %w", err)
	}
	return nil
}

type matchRow struct {
	ChunkID      string  `json:"chunk_id"`
	Score        float64 `json:"score"`
	TranscriptID string  `json:"transcript_id"`
	CourseName   string  `json:"course_name"`
	WeekNumber   *int    `json:"week_number"`
}

func (s *Surreal) Query(ctx context.Context, vector []float32, topK int, scope models.Scope) ([]Match, error) {
	if topK <= 0 {
		return []Match{}, nil
	}

	filter := ""
	vars := map[string]any{"vec": vector}
	if scope.CourseName != "" {
		filter += " AND course_name = $course"
		vars["course"] = scope.CourseName
	}
	if scope.WeekNumber != nil {
		filter += " AND week_number = $week"
		vars["week"] = *scope.WeekNumber
	}

	// KNN operator needs a literal K; ef=40 for better recall.
	sql := fmt.Sprintf(`
		SELECT record::id(id) AS chunk_id, transcript_id, course_name, week_number,
			vector::similarity::cosine(vector, $vec) AS score
		FROM embedding
		WHERE vector <|%d,40|> $vec %s
		ORDER BY score DESC
	`, topK, filter)

	start := time.Now()
	results, err := surrealdb.Query[[]matchRow](ctx, s.client.DB(), sql, vars)
	s.collector.RecordTiming(metrics.OpIndexQuery, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []Match{}, nil
	}
	rows := (*results)[0].Result

	matches := make([]Match, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, Match{
			ChunkID: r.ChunkID,
			Score:   r.Score,
			Meta: models.EmbeddingMeta{
				TranscriptID: r.TranscriptID,
				CourseName:   r.CourseName,
				WeekNumber:   r.WeekNumber,
			},
		})
	}

	// The database orders by score only; enforce the chunk-ID tie-break
	// client-side so equal scores rank deterministically.
	sortMatches(matches)
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *Surreal) DeleteTranscript(ctx context.Context, transcriptID string) error {
	_, err := surrealdb.Query[any](ctx, s.client.DB(), `
		DELETE embedding WHERE transcript_id = $tid
	`, map[string]any{"tid": transcriptID})
	if err != nil {
		return fmt.Errorf("index delete transcript: %w", err)
	}
	return nil
}

func (s *Surreal) ListTranscriptIDs(ctx context.Context) ([]string, error) {
	results, err := surrealdb.Query[[]struct {
		TranscriptID string `json:"transcript_id"`
	}](ctx, s.client.DB(), `
		SELECT transcript_id FROM embedding GROUP BY transcript_id
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("index list transcripts: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []string{}, nil
	}
	ids := make([]string, 0, len((*results)[0].Result))
	for _, row := range (*results)[0].Result {
		ids = append(ids, row.TranscriptID)
	}
	return ids, nil
}

// sortMatches orders by score descending, then chunk ID ascending.
func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ChunkID < matches[j].ChunkID
	})
}
