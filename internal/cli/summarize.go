package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/studybuddy/internal/models"
	"github.com/raphaelgruber/studybuddy/internal/service"
)

var (
	summarizeCourse     string
	summarizeWeek       int
	summarizeTopic      string
	summarizeOutputFile string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize course material",
	Long: `Generate a summary of the material in a course or a single week.

Examples:
  studybuddy summarize --course ML101
  studybuddy summarize --course ML101 --week 2
  studybuddy summarize --course ML101 --topic "optimization" -o summary.md`,
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVarP(&summarizeCourse, "course", "c", "", "course to summarize (required)")
	summarizeCmd.Flags().IntVarP(&summarizeWeek, "week", "w", 0, "week to summarize")
	summarizeCmd.Flags().StringVarP(&summarizeTopic, "topic", "t", "", "focus the summary on a topic")
	summarizeCmd.Flags().StringVarP(&summarizeOutputFile, "output", "o", "", "write output to file")
	summarizeCmd.MarkFlagRequired("course")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	qs, err := getQueryService()
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	scope := models.Scope{CourseName: summarizeCourse}
	if summarizeWeek > 0 {
		scope.WeekNumber = &summarizeWeek
	}

	resp, err := qs.Query(ctx, service.QueryRequest{
		Mode:  models.ModeSummarize,
		Query: summarizeTopic,
		Scope: scope,
	})
	if errors.Is(err, models.ErrInsufficientContext) {
		fmt.Println("No material found to summarize in this scope.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	return printResponse(resp, summarizeOutputFile)
}
