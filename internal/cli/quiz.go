package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/studybuddy/internal/models"
	"github.com/raphaelgruber/studybuddy/internal/service"
)

var (
	quizCourse     string
	quizWeek       int
	quizQuestions  int
	quizTypes      []string
	quizTopic      string
	quizOutputFile string
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate a quiz from course material",
	Long: `Generate quiz questions from ingested transcripts. If the requested
scope has no material, the quiz is generated from all courses and
marked accordingly.

Examples:
  studybuddy quiz --course ML101
  studybuddy quiz --course ML101 --week 2 --questions 10
  studybuddy quiz --course ML101 --types "Multiple Choice,Short Answer"
  studybuddy quiz --course ML101 --topic "neural networks" -o quiz.md`,
	RunE: runQuiz,
}

func init() {
	quizCmd.Flags().StringVarP(&quizCourse, "course", "c", "", "course to quiz on (required)")
	quizCmd.Flags().IntVarP(&quizWeek, "week", "w", 0, "week to quiz on")
	quizCmd.Flags().IntVarP(&quizQuestions, "questions", "n", 5, "number of questions")
	quizCmd.Flags().StringSliceVarP(&quizTypes, "types", "t", nil, "question types (e.g. 'Multiple Choice,True/False')")
	quizCmd.Flags().StringVar(&quizTopic, "topic", "", "focus the quiz on a topic")
	quizCmd.Flags().StringVarP(&quizOutputFile, "output", "o", "", "write output to file")
	quizCmd.MarkFlagRequired("course")
}

func runQuiz(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	qs, err := getQueryService()
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	scope := models.Scope{CourseName: quizCourse}
	if quizWeek > 0 {
		scope.WeekNumber = &quizWeek
	}

	resp, err := qs.Query(ctx, service.QueryRequest{
		Mode:  models.ModeQuiz,
		Query: quizTopic,
		Scope: scope,
		Quiz: &models.QuizOptions{
			NumQuestions:  quizQuestions,
			QuestionTypes: quizTypes,
		},
	})
	if err != nil {
		return fmt.Errorf("generate quiz: %w", err)
	}

	return printResponse(resp, quizOutputFile)
}
