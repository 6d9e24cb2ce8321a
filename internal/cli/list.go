package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/studybuddy/internal/models"
)

var (
	listCourse string
	listWeek   int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested transcripts",
	Long: `List transcripts in the pipeline with optional filtering.

Examples:
  studybuddy list
  studybuddy list --course ML101
  studybuddy list --course ML101 --week 2`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listCourse, "course", "c", "", "filter by course name")
	listCmd.Flags().IntVarP(&listWeek, "week", "w", 0, "filter by week number")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	filter := models.TranscriptFilter{CourseName: listCourse}
	if listWeek > 0 {
		filter.WeekNumber = &listWeek
	}

	recs, err := dbClient.ListTranscripts(ctx, filter)
	if err != nil {
		return fmt.Errorf("list transcripts: %w", err)
	}

	if len(recs) == 0 {
		fmt.Println("No transcripts found.")
		return nil
	}

	fmt.Printf("Transcripts (%d):\n\n", len(recs))
	for _, rec := range recs {
		week := "-"
		if rec.WeekNumber != nil {
			week = fmt.Sprintf("week %d", *rec.WeekNumber)
		}
		status := string(rec.Status)
		if rec.Status == models.StatusFailed && rec.FailedStage != nil {
			status = fmt.Sprintf("failed at %s", *rec.FailedStage)
			status = defaultTheme.errorStyle().Render(status)
		}
		fmt.Printf("- %s [%s, %s] %s\n", rec.TranscriptName, rec.CourseName, week, status)
		if verbose {
			fmt.Printf("  ID:      %s\n", rec.ID)
			fmt.Printf("  Created: %s\n", rec.CreatedAt.Format("2006-01-02 15:04"))
		}
	}

	return nil
}
