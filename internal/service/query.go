package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/studybuddy/internal/models"
)

// QueryService orchestrates retrieval and synthesis for one user query.
type QueryService struct {
	retriever *Retriever
	synth     *Synthesizer
}

// NewQueryService creates a query service.
func NewQueryService(retriever *Retriever, synth *Synthesizer) *QueryService {
	return &QueryService{retriever: retriever, synth: synth}
}

// QueryRequest is one query-boundary request.
type QueryRequest struct {
	Mode  models.Mode         `json:"mode"`
	Query string              `json:"query"`
	Scope models.Scope        `json:"scope"`
	TopK  int                 `json:"top_k,omitempty"`
	Quiz  *models.QuizOptions `json:"quiz,omitempty"`
	Exam  *models.ExamOptions `json:"exam,omitempty"`
}

// Query retrieves chunks for the request's scope and synthesizes a grounded
// response. Quiz and exam modes fall back to unscoped retrieval when the
// scoped search finds nothing, and the response is flagged as broad scope;
// summarize and answer modes surface models.ErrInsufficientContext instead.
func (q *QueryService) Query(ctx context.Context, req QueryRequest) (*models.GeneratedResponse, error) {
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", models.ErrInvalidInput, req.Mode)
	}

	retrievalQuery := req.Query
	if retrievalQuery == "" {
		// Summaries, quizzes and exams don't need a user question; retrieve
		// against the scope description instead.
		retrievalQuery = retrievalTopic(req)
	}

	retrieved, err := q.retriever.Retrieve(ctx, retrievalQuery, req.Scope, req.TopK)
	if err != nil {
		return nil, err
	}

	broadScope := false
	if len(retrieved) == 0 {
		fallback := (req.Mode == models.ModeQuiz || req.Mode == models.ModeExam) && !req.Scope.IsZero()
		if !fallback {
			return nil, fmt.Errorf("%w: nothing indexed for scope", models.ErrInsufficientContext)
		}

		slog.Info("scoped retrieval empty, falling back to broad scope",
			"mode", req.Mode, "course", req.Scope.CourseName)
		retrieved, err = q.retriever.Retrieve(ctx, retrievalQuery, models.Scope{}, req.TopK)
		if err != nil {
			return nil, err
		}
		if len(retrieved) == 0 {
			return nil, fmt.Errorf("%w: nothing indexed", models.ErrInsufficientContext)
		}
		broadScope = true
	}

	return q.synth.Synthesize(ctx, SynthesisInput{
		Mode:       req.Mode,
		Query:      req.Query,
		Scope:      req.Scope,
		Quiz:       req.Quiz,
		Exam:       req.Exam,
		BroadScope: broadScope,
	}, retrieved)
}

// retrievalTopic builds a retrieval query from the scope when the caller
// gave no free-text query.
func retrievalTopic(req QueryRequest) string {
	topic := "key concepts, definitions and main takeaways"
	if req.Scope.CourseName != "" {
		topic += " of " + req.Scope.CourseName
	}
	if req.Scope.WeekNumber != nil {
		topic += fmt.Sprintf(" week %d", *req.Scope.WeekNumber)
	}
	return topic
}
