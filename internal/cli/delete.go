package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/studybuddy/internal/models"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <transcript-id>",
	Short: "Delete a transcript and all derived data",
	Long: `Delete a transcript record along with its chunks, embeddings, and the
stored raw text.

If index cleanup fails the transcript is still removed from the catalog;
run 'studybuddy purge' later to remove the leftover vectors.

Examples:
  studybuddy delete 018f3c1e-4b2a-7c3d-9e1f-2a3b4c5d6e7f`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	ctx := context.Background()

	ingest, err := getIngestService(false)
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	err = ingest.Delete(ctx, id)
	if errors.Is(err, models.ErrCleanupPending) {
		fmt.Printf("%s %s\n", defaultTheme.successStyle().Render("Deleted"), id)
		fmt.Println(defaultTheme.hintStyle().Render(
			"Some derived data could not be removed. Run 'studybuddy purge' to clean up."))
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	fmt.Printf("%s %s\n", defaultTheme.successStyle().Render("Deleted"), id)
	return nil
}
