package db

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/studybuddy/internal/models"
)

// transcriptFields is the projection used for all transcript reads.
// record::id unwraps the record id into a plain string.
const transcriptFields = `record::id(id) AS id, course_name, week_number, transcript_name,
	storage_path, status, failed_stage, batches_indexed, created AS created_at`

// CourseCount is a course with its transcript count.
type CourseCount struct {
	CourseName string `json:"course_name"`
	Count      int    `json:"count"`
}

// CreateTranscript persists a new transcript record under its caller-assigned ID.
func (c *Client) CreateTranscript(ctx context.Context, rec models.TranscriptRecord) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE type::record("transcript", $id) SET
			course_name = $course_name,
			week_number = $week_number,
			transcript_name = $transcript_name,
			storage_path = $storage_path,
			status = $status,
			batches_indexed = $batches_indexed
		RETURN NONE
	`, map[string]any{
		"id":              rec.ID,
		"course_name":     rec.CourseName,
		"week_number":     rec.WeekNumber,
		"transcript_name": rec.TranscriptName,
		"storage_path":    rec.StoragePath,
		"status":          string(rec.Status),
		"batches_indexed": rec.BatchesIndexed,
	})
	if err != nil {
		return fmt.Errorf("create transcript: %w", wrapQueryError(err))
	}
	return nil
}

// GetTranscript retrieves a transcript by ID.
// Returns models.ErrNotFound if it does not exist.
func (c *Client) GetTranscript(ctx context.Context, id string) (*models.TranscriptRecord, error) {
	results, err := surrealdb.Query[[]models.TranscriptRecord](ctx, c.db, fmt.Sprintf(`
		SELECT %s FROM type::record("transcript", $id)
	`, transcriptFields), map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("%w: transcript %s", models.ErrNotFound, id)
	}
	return &(*results)[0].Result[0], nil
}

// ListTranscripts returns transcript records matching the filter, newest first.
// A zero filter returns everything.
func (c *Client) ListTranscripts(ctx context.Context, filter models.TranscriptFilter) ([]models.TranscriptRecord, error) {
	where := ""
	vars := map[string]any{}
	if filter.CourseName != "" {
		where = "WHERE course_name = $course"
		vars["course"] = filter.CourseName
	}
	if filter.WeekNumber != nil {
		if where == "" {
			where = "WHERE week_number = $week"
		} else {
			where += " AND week_number = $week"
		}
		vars["week"] = *filter.WeekNumber
	}

	sql := fmt.Sprintf(`
		SELECT %s FROM transcript %s ORDER BY created DESC
	`, transcriptFields, where)

	results, err := surrealdb.Query[[]models.TranscriptRecord](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.TranscriptRecord{}, nil
	}
	return (*results)[0].Result, nil
}

// DeleteTranscript deletes a transcript record by ID.
// Returns false if it did not exist (idempotent).
func (c *Client) DeleteTranscript(ctx context.Context, id string) (bool, error) {
	results, err := surrealdb.Query[[]models.TranscriptRecord](ctx, c.db, `
		DELETE type::record("transcript", $id) RETURN BEFORE
	`, map[string]any{"id": id})
	if err != nil {
		return false, fmt.Errorf("delete transcript: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return false, nil
	}
	return len((*results)[0].Result) > 0, nil
}

// UpdateTranscriptStatus advances the transcript's pipeline status and clears
// any recorded failure stage.
func (c *Client) UpdateTranscriptStatus(ctx context.Context, id string, status models.TranscriptStatus) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("transcript", $id) SET
			status = $status,
			failed_stage = NONE
	`, map[string]any{"id": id, "status": string(status)})
	if err != nil {
		return fmt.Errorf("update transcript status: %w", err)
	}
	return nil
}

// MarkTranscriptFailed records a pipeline failure and the stage it stopped at.
func (c *Client) MarkTranscriptFailed(ctx context.Context, id, stage string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("transcript", $id) SET
			status = $status,
			failed_stage = $stage
	`, map[string]any{"id": id, "status": string(models.StatusFailed), "stage": stage})
	if err != nil {
		return fmt.Errorf("mark transcript failed: %w", err)
	}
	return nil
}

// SetBatchesIndexed records how many embedding batches are durably indexed,
// so a resume can skip them.
func (c *Client) SetBatchesIndexed(ctx context.Context, id string, batches int) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("transcript", $id) SET batches_indexed = $batches
	`, map[string]any{"id": id, "batches": batches})
	if err != nil {
		return fmt.Errorf("set batches indexed: %w", err)
	}
	return nil
}

// ListCourses returns distinct course names with transcript counts.
func (c *Client) ListCourses(ctx context.Context) ([]CourseCount, error) {
	results, err := surrealdb.Query[[]CourseCount](ctx, c.db, `
		SELECT course_name, count() AS count FROM transcript
		GROUP BY course_name ORDER BY course_name
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []CourseCount{}, nil
	}
	return (*results)[0].Result, nil
}

// ListWeeks returns the distinct week numbers ingested for a course, ascending.
func (c *Client) ListWeeks(ctx context.Context, courseName string) ([]int, error) {
	results, err := surrealdb.Query[[]struct {
		WeekNumber int `json:"week_number"`
	}](ctx, c.db, `
		SELECT week_number FROM transcript
		WHERE course_name = $course AND week_number != NONE
		GROUP BY week_number ORDER BY week_number
	`, map[string]any{"course": courseName})
	if err != nil {
		return nil, fmt.Errorf("list weeks: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []int{}, nil
	}
	weeks := make([]int, 0, len((*results)[0].Result))
	for _, row := range (*results)[0].Result {
		weeks = append(weeks, row.WeekNumber)
	}
	return weeks, nil
}
