package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove orphaned index entries",
	Long: `Remove index entries whose transcript no longer exists in the catalog.
Orphans appear when a delete succeeds on the metadata side but the
index cleanup fails.

Examples:
  studybuddy purge`,
	RunE: runPurge,
}

func runPurge(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ingest, err := getIngestService(false)
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	purged, err := ingest.PurgeOrphans(ctx)
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}

	if purged == 0 {
		fmt.Println("No orphaned index entries found.")
		return nil
	}
	fmt.Printf("Purged index entries for %d transcripts.\n", purged)
	return nil
}
