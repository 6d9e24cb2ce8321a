package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <transcript-id>",
	Short: "Resume a failed or interrupted ingestion",
	Long: `Resume ingestion of a transcript that failed partway. Embedding
batches that were already indexed are skipped, so a resume after a
provider outage only pays for the remaining work.

Examples:
  studybuddy resume 018f3c1e-4b2a-7c3d-9e1f-2a3b4c5d6e7f`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func runResume(cmd *cobra.Command, args []string) error {
	id := args[0]
	ctx := context.Background()

	ingest, err := getIngestService(true)
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	rec, err := ingest.Resume(ctx, id)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}

	fmt.Printf("%s %s (%s)\n", defaultTheme.successStyle().Render("Resumed"), rec.TranscriptName, rec.Status)
	return nil
}
