// Package models defines the data model shared across the ingestion and
// retrieval pipeline.
package models

import "time"

// TranscriptStatus tracks a transcript through the ingestion pipeline.
type TranscriptStatus string

const (
	StatusReceived TranscriptStatus = "received"
	StatusChunked  TranscriptStatus = "chunked"
	StatusEmbedded TranscriptStatus = "embedded"
	StatusIndexed  TranscriptStatus = "indexed"
	StatusComplete TranscriptStatus = "complete"
	StatusFailed   TranscriptStatus = "failed"
)

// TranscriptRecord is the persisted metadata for one uploaded transcript.
// Immutable after successful ingestion except for status fields.
type TranscriptRecord struct {
	ID             string           `json:"id"`
	CourseName     string           `json:"course_name"`
	WeekNumber     *int             `json:"week_number,omitempty"`
	TranscriptName string           `json:"transcript_name"`
	StoragePath    string           `json:"storage_path"`
	Status         TranscriptStatus `json:"status"`

	// FailedStage is set when Status is "failed" so a resume can pick up
	// from the failed stage instead of restarting.
	FailedStage *string `json:"failed_stage,omitempty"`

	// BatchesIndexed counts embedding batches already durably upserted.
	// Resume skips these batches rather than re-embedding them.
	BatchesIndexed int `json:"batches_indexed"`

	CreatedAt time.Time `json:"created_at"`
}

// TranscriptFilter narrows transcript listings by course and/or week.
type TranscriptFilter struct {
	CourseName string
	WeekNumber *int
}
