package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/raphaelgruber/studybuddy/internal/models"
)

// Synthesizer turns retrieved chunks into a grounded response for one of the
// four query modes.
type Synthesizer struct {
	gen           TextGenerator
	contextBudget int
}

// NewSynthesizer creates a synthesizer. contextBudget bounds the grounding
// context size in bytes; lowest-ranked chunks are dropped first to fit.
func NewSynthesizer(gen TextGenerator, contextBudget int) *Synthesizer {
	if contextBudget <= 0 {
		contextBudget = 14000
	}
	return &Synthesizer{gen: gen, contextBudget: contextBudget}
}

// SynthesisInput describes what to generate from the retrieved chunks.
type SynthesisInput struct {
	Mode  models.Mode
	Query string
	Scope models.Scope
	Quiz  *models.QuizOptions
	Exam  *models.ExamOptions

	// BroadScope marks that retrieval fell back beyond the requested scope;
	// it is carried through to the response.
	BroadScope bool
}

const groundingSystemPrompt = `You are a study assistant for course lecture transcripts. Work ONLY from the provided transcript excerpts.
If the excerpts don't contain enough information for the request, say so explicitly.
Be accurate and specific; never invent content that is not supported by the excerpts.`

// Synthesize builds a bounded grounding context from the retrieved chunks and
// dispatches to the generation provider. The cited chunk IDs are exactly the
// chunks that made it into the context, always a subset of the input.
func (s *Synthesizer) Synthesize(ctx context.Context, in SynthesisInput, retrieved []models.RetrievalResult) (*models.GeneratedResponse, error) {
	if !in.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", models.ErrInvalidInput, in.Mode)
	}
	if len(retrieved) == 0 {
		return nil, fmt.Errorf("%w: no chunks retrieved", models.ErrInsufficientContext)
	}

	grounding, cited := s.buildContext(retrieved)

	userPrompt := fmt.Sprintf("Transcript excerpts:\n%s\n\n%s", grounding, s.instructions(in))

	text, err := s.gen.GenerateWithSystem(ctx, groundingSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("generation returned empty response")
	}

	return &models.GeneratedResponse{
		Text:          text,
		CitedChunkIDs: cited,
		BroadScope:    in.BroadScope,
	}, nil
}

// buildContext concatenates chunk texts in rank order until the budget is
// reached. The top chunk is always included, truncated if it alone exceeds
// the budget.
func (s *Synthesizer) buildContext(retrieved []models.RetrievalResult) (string, []string) {
	var b strings.Builder
	var cited []string

	for i, r := range retrieved {
		block := fmt.Sprintf("[%s]\n%s\n\n", r.ChunkID, r.Text)
		if b.Len()+len(block) > s.contextBudget {
			if i == 0 {
				cut := s.contextBudget
				if cut > len(block) {
					cut = len(block)
				}
				// Never truncate mid-rune.
				for cut > 0 && cut < len(block) && !utf8.RuneStart(block[cut]) {
					cut--
				}
				b.WriteString(block[:cut])
				cited = append(cited, r.ChunkID)
			}
			break
		}
		b.WriteString(block)
		cited = append(cited, r.ChunkID)
	}
	return strings.TrimRight(b.String(), "\n"), cited
}

// instructions renders the mode-specific request.
func (s *Synthesizer) instructions(in SynthesisInput) string {
	scope := scopePhrase(in.Scope)

	switch in.Mode {
	case models.ModeSummarize:
		return fmt.Sprintf("Generate a concise summary (250-300 words) of the excerpts above%s. Focus on key concepts, important definitions, and main takeaways.", scope)

	case models.ModeAnswer:
		return fmt.Sprintf("Question: %s\n\nAnswer the question using only the excerpts above. Be concise and cite specific information from the excerpts where relevant.", in.Query)

	case models.ModeQuiz:
		num := 5
		types := []string{"Multiple Choice", "True/False"}
		if in.Quiz != nil {
			if in.Quiz.NumQuestions > 0 {
				num = in.Quiz.NumQuestions
			}
			if len(in.Quiz.QuestionTypes) > 0 {
				types = in.Quiz.QuestionTypes
			}
		}
		return fmt.Sprintf(`Generate %d quiz questions from the excerpts above%s.
Include the following question types: %s.
For each question:
1. Provide the question clearly
2. For multiple-choice, include 4 options (A, B, C, D) with only one correct answer
3. For all questions, provide the correct answer
4. Include a brief explanation of why the answer is correct, referencing the course content

Format each question with a number, followed by the question type in parentheses.`, num, scope, strings.Join(types, ", "))

	case models.ModeExam:
		num := 10
		difficulty := "Medium"
		weeksPhrase := "all covered material"
		if in.Exam != nil {
			if in.Exam.NumQuestions > 0 {
				num = in.Exam.NumQuestions
			}
			if in.Exam.Difficulty != "" {
				difficulty = in.Exam.Difficulty
			}
			if len(in.Exam.Weeks) > 0 {
				parts := make([]string, len(in.Exam.Weeks))
				for i, w := range in.Exam.Weeks {
					parts[i] = fmt.Sprintf("Week %d", w)
				}
				weeksPhrase = strings.Join(parts, ", ")
			}
		}
		return fmt.Sprintf(`Create a practice exam from the excerpts above%s, covering %s.
Generate %d questions at %s difficulty level.

Include a mix of:
- Multiple-choice questions (4 options)
- True/False questions
- Short answer questions

For each question:
1. Clearly state the question
2. Provide all necessary options for multiple-choice
3. Include the correct answer
4. Provide a detailed explanation of the answer, referencing specific course content

The exam should resemble an actual exam in style and format.
Number each question and specify its type in parentheses.`, scope, weeksPhrase, num, difficulty)
	}
	return in.Query
}

func scopePhrase(scope models.Scope) string {
	switch {
	case scope.CourseName != "" && scope.WeekNumber != nil:
		return fmt.Sprintf(" for the course %q, Week %d", scope.CourseName, *scope.WeekNumber)
	case scope.CourseName != "":
		return fmt.Sprintf(" for the course %q", scope.CourseName)
	default:
		return ""
	}
}
