package models

// Mode selects how retrieved context is turned into a response.
type Mode string

const (
	ModeSummarize Mode = "summarize"
	ModeAnswer    Mode = "answer"
	ModeQuiz      Mode = "generate_quiz"
	ModeExam      Mode = "generate_exam"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeSummarize, ModeAnswer, ModeQuiz, ModeExam:
		return true
	}
	return false
}

// Scope narrows retrieval to a subset of ingested transcripts.
// A zero Scope searches across everything.
type Scope struct {
	CourseName string `json:"course_name,omitempty"`
	WeekNumber *int   `json:"week_number,omitempty"`
}

// IsZero reports whether the scope applies no filter at all.
func (s Scope) IsZero() bool {
	return s.CourseName == "" && s.WeekNumber == nil
}

// RetrievalResult is one ranked chunk returned by the retriever.
// Ephemeral; never persisted.
type RetrievalResult struct {
	ChunkID      string  `json:"chunk_id"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
	TranscriptID string  `json:"transcript_id"`
	CourseName   string  `json:"course_name"`
	WeekNumber   *int    `json:"week_number,omitempty"`
}

// QuizOptions configures quiz generation.
type QuizOptions struct {
	NumQuestions  int      `json:"num_questions"`
	QuestionTypes []string `json:"question_types,omitempty"`
}

// ExamOptions configures practice-exam generation.
type ExamOptions struct {
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty,omitempty"`
	Weeks        []int  `json:"weeks,omitempty"`
}

// GeneratedResponse is the grounded output of the answer synthesizer.
type GeneratedResponse struct {
	Text          string   `json:"text"`
	CitedChunkIDs []string `json:"cited_chunk_ids"`

	// BroadScope is set when quiz/exam generation fell back to retrieval
	// beyond the requested scope because the scoped search was empty.
	BroadScope bool `json:"broad_scope,omitempty"`
}
