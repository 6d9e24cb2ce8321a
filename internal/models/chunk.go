package models

// Chunk is a bounded-size text segment derived from a transcript, the unit
// of retrieval. Chunks are derived deterministically and never mutated;
// re-ingesting a transcript regenerates them wholesale.
type Chunk struct {
	ID           string `json:"id"`
	TranscriptID string `json:"transcript_id"`
	Text         string `json:"text"`

	// Seq is the chunk's position within the transcript, strictly
	// increasing and gapless starting at 0.
	Seq int `json:"seq"`

	// CharStart/CharEnd are byte offsets into the original transcript
	// text, including the overlap region shared with the previous chunk.
	CharStart int `json:"char_start"`
	CharEnd   int `json:"char_end"`

	// OverlapLen is the number of leading bytes shared with the previous
	// chunk. Stripping it from every chunk but the first reconstructs the
	// original text exactly.
	OverlapLen int `json:"overlap_len"`

	// Denormalized scope metadata so retrieval can filter without a join.
	CourseName string `json:"course_name"`
	WeekNumber *int   `json:"week_number,omitempty"`
}

// EmbeddingMeta is the metadata stored alongside a vector in the index.
type EmbeddingMeta struct {
	CourseName   string `json:"course_name"`
	WeekNumber   *int   `json:"week_number,omitempty"`
	TranscriptID string `json:"transcript_id"`
}

// EmbeddingEntry pairs a chunk id with its vector and scope metadata.
// One-to-one with Chunk; lifetime tied to the chunk.
type EmbeddingEntry struct {
	ChunkID string        `json:"chunk_id"`
	Vector  []float32     `json:"vector"`
	Meta    EmbeddingMeta `json:"meta"`
}
