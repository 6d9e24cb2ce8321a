package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/studybuddy/internal/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show runtime statistics for this invocation",
	Long: `Show in-process timing statistics for provider and database calls
made during this invocation. Mostly useful combined with other
commands in scripts, or for debugging slow providers.

Examples:
  studybuddy stats`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	snap := collector.Snapshot()

	fmt.Println("Runtime Statistics (this process)")
	fmt.Println("═══════════════════════════════════════")
	fmt.Printf("Uptime: %.1f seconds\n", snap.UptimeSeconds)

	printOpSnapshot("Embeddings", snap.Embedding)
	printOpSnapshot("Generation", snap.Generation)
	printOpSnapshot("Index Upsert", snap.IndexUpsert)
	printOpSnapshot("Index Query", snap.IndexQuery)
	printOpSnapshot("DB Query", snap.DBQuery)

	return nil
}

func printOpSnapshot(name string, op *metrics.OperationSnapshot) {
	if op == nil {
		return
	}
	fmt.Printf("\n%s:\n", name)
	fmt.Printf("  Calls: %d, Total: %dms\n", op.Count, op.TotalTimeMs)
	fmt.Printf("  Time: avg %.1fms, min %dms, max %dms\n", op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
