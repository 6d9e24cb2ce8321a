package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/studybuddy/internal/models"
	"github.com/raphaelgruber/studybuddy/internal/service"
)

var (
	examCourse     string
	examQuestions  int
	examDifficulty string
	examWeeks      []int
	examOutputFile string
)

var examCmd = &cobra.Command{
	Use:   "exam",
	Short: "Generate a practice exam from course material",
	Long: `Generate a practice exam covering a course, optionally restricted to
specific weeks.

Examples:
  studybuddy exam --course ML101
  studybuddy exam --course ML101 --questions 15 --difficulty Hard
  studybuddy exam --course ML101 --weeks 1,2,3 -o exam.md`,
	RunE: runExam,
}

func init() {
	examCmd.Flags().StringVarP(&examCourse, "course", "c", "", "course to examine (required)")
	examCmd.Flags().IntVarP(&examQuestions, "questions", "n", 10, "number of questions")
	examCmd.Flags().StringVarP(&examDifficulty, "difficulty", "d", "Medium", "difficulty (Easy, Medium, Hard)")
	examCmd.Flags().IntSliceVarP(&examWeeks, "weeks", "w", nil, "weeks to cover (default all)")
	examCmd.Flags().StringVarP(&examOutputFile, "output", "o", "", "write output to file")
	examCmd.MarkFlagRequired("course")
}

func runExam(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	qs, err := getQueryService()
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	resp, err := qs.Query(ctx, service.QueryRequest{
		Mode:  models.ModeExam,
		Scope: models.Scope{CourseName: examCourse},
		Exam: &models.ExamOptions{
			NumQuestions: examQuestions,
			Difficulty:   examDifficulty,
			Weeks:        examWeeks,
		},
	})
	if err != nil {
		return fmt.Errorf("generate exam: %w", err)
	}

	return printResponse(resp, examOutputFile)
}
