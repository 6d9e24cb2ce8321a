package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/studybuddy/internal/models"
)

var (
	searchCourse string
	searchWeek   int
	searchLimit  int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search transcripts without LLM synthesis",
	Long: `Search ingested transcripts by semantic similarity.

Returns matching chunks ranked by relevance without LLM synthesis.
Use 'ask' for a synthesized answer.

Examples:
  studybuddy search "gradient descent"
  studybuddy search "eigenvalues" --course "Linear Algebra"
  studybuddy search "backpropagation" --course ML101 --week 4`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchCourse, "course", "c", "", "restrict to a course")
	searchCmd.Flags().IntVarP(&searchWeek, "week", "w", 0, "restrict to a week")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "max results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := context.Background()

	retriever, err := getRetriever()
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	scope := models.Scope{CourseName: searchCourse}
	if searchWeek > 0 {
		scope.WeekNumber = &searchWeek
	}

	results, err := retriever.Retrieve(ctx, query, scope, searchLimit)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(results))
	for i, r := range results {
		where := r.CourseName
		if r.WeekNumber != nil {
			where = fmt.Sprintf("%s, week %d", r.CourseName, *r.WeekNumber)
		}
		score := defaultTheme.scoreStyle().Render(fmt.Sprintf("%.3f", r.Score))
		fmt.Printf("%d. %s [%s]\n", i+1, defaultTheme.headingStyle().Render(where), score)

		text := strings.TrimSpace(r.Text)
		if len(text) > 200 && !verbose {
			text = text[:197] + "..."
		}
		fmt.Printf("   %s\n", text)
		if verbose {
			fmt.Printf("   %s\n", defaultTheme.hintStyle().Render("chunk "+r.ChunkID))
		}
		fmt.Println()
	}

	return nil
}
