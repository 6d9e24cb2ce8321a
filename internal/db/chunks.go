package db

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/studybuddy/internal/models"
)

const chunkFields = `record::id(id) AS id, transcript_id, seq, text,
	char_start, char_end, overlap_len, course_name, week_number`

// CreateChunks upserts a batch of chunks. Chunk IDs are deterministic, so
// re-ingesting a transcript overwrites its chunks in place.
func (c *Client) CreateChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(chunks))
	for _, ch := range chunks {
		rows = append(rows, map[string]any{
			"id":            ch.ID,
			"transcript_id": ch.TranscriptID,
			"seq":           ch.Seq,
			"text":          ch.Text,
			"char_start":    ch.CharStart,
			"char_end":      ch.CharEnd,
			"overlap_len":   ch.OverlapLen,
			"course_name":   ch.CourseName,
			"week_number":   ch.WeekNumber,
		})
	}

	_, err := surrealdb.Query[any](ctx, c.db, `
		FOR $c IN $chunks {
			UPSERT type::record("chunk", $c.id) SET
				transcript_id = $c.transcript_id,
				seq = $c.seq,
				text = $c.text,
				char_start = $c.char_start,
				char_end = $c.char_end,
				overlap_len = $c.overlap_len,
				course_name = $c.course_name,
				week_number = $c.week_number
		};
	`, map[string]any{"chunks": rows})
	if err != nil {
		return fmt.Errorf("create chunks: %w", wrapQueryError(err))
	}
	return nil
}

// GetChunksByTranscript returns a transcript's chunks ordered by sequence.
func (c *Client) GetChunksByTranscript(ctx context.Context, transcriptID string) ([]models.Chunk, error) {
	results, err := surrealdb.Query[[]models.Chunk](ctx, c.db, fmt.Sprintf(`
		SELECT %s FROM chunk WHERE transcript_id = $tid ORDER BY seq
	`, chunkFields), map[string]any{"tid": transcriptID})
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Chunk{}, nil
	}
	return (*results)[0].Result, nil
}

// GetChunksByIDs returns the chunks for the given IDs, keyed by chunk ID.
// Missing IDs are simply absent from the result.
func (c *Client) GetChunksByIDs(ctx context.Context, ids []string) (map[string]models.Chunk, error) {
	if len(ids) == 0 {
		return map[string]models.Chunk{}, nil
	}

	results, err := surrealdb.Query[[]models.Chunk](ctx, c.db, fmt.Sprintf(`
		SELECT %s FROM chunk WHERE record::id(id) IN $ids
	`, chunkFields), map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("get chunks by ids: %w", err)
	}

	byID := make(map[string]models.Chunk)
	if results != nil && len(*results) > 0 {
		for _, ch := range (*results)[0].Result {
			byID[ch.ID] = ch
		}
	}
	return byID, nil
}

// DeleteChunksByTranscript deletes all chunks belonging to a transcript.
// Idempotent.
func (c *Client) DeleteChunksByTranscript(ctx context.Context, transcriptID string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE chunk WHERE transcript_id = $tid
	`, map[string]any{"tid": transcriptID})
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}
