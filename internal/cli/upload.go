package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/studybuddy/internal/models"
	"github.com/raphaelgruber/studybuddy/internal/service"
)

var (
	uploadCourse string
	uploadWeek   int
	uploadName   string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a lecture transcript for ingestion",
	Long: `Upload a plain-text lecture transcript. The transcript is chunked,
embedded, and indexed so it can be searched and queried.

Examples:
  studybuddy upload lecture1.txt --course ML101 --week 1
  studybuddy upload notes.txt --course "Linear Algebra" --week 3 --name "Eigenvalues"`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadCourse, "course", "c", "", "course name (required)")
	uploadCmd.Flags().IntVarP(&uploadWeek, "week", "w", 0, "week number")
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "transcript name (defaults to file name)")
	uploadCmd.MarkFlagRequired("course")
}

func runUpload(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := context.Background()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}

	name := uploadName
	if name == "" {
		name = filepath.Base(path)
	}

	input := service.IngestInput{
		CourseName:     uploadCourse,
		TranscriptName: name,
		Text:           string(data),
	}
	if uploadWeek > 0 {
		input.WeekNumber = &uploadWeek
	}

	ingest, err := getIngestService(true)
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	rec, err := ingest.Ingest(ctx, input)
	if err != nil {
		var failure *models.IngestFailure
		if errors.As(err, &failure) && failure.Retryable() {
			fmt.Fprintf(os.Stderr, "%s\n",
				defaultTheme.hintStyle().Render(
					fmt.Sprintf("Ingestion failed at the %s stage. Retry with: studybuddy resume %s",
						failure.Stage, failure.TranscriptID)))
		}
		return fmt.Errorf("ingest: %w", err)
	}

	fmt.Printf("%s %s (%s)\n", defaultTheme.successStyle().Render("Ingested"), rec.TranscriptName, rec.ID)
	if verbose {
		fmt.Printf("  Course: %s\n", rec.CourseName)
		if rec.WeekNumber != nil {
			fmt.Printf("  Week:   %d\n", *rec.WeekNumber)
		}
		fmt.Printf("  Status: %s\n", rec.Status)
	}

	return nil
}
