package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/studybuddy/internal/models"
	"github.com/raphaelgruber/studybuddy/internal/service"
)

var (
	askCourse     string
	askWeek       int
	askTopK       int
	askOutputFile string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question and get an answer grounded in the material",
	Long: `Ask a question about the course material and get an LLM-synthesized
answer grounded in retrieved transcript chunks.

Examples:
  studybuddy ask "What is gradient descent?"
  studybuddy ask "How does backpropagation work?" --course ML101
  studybuddy ask "What did we cover about eigenvalues?" --course "Linear Algebra" --week 3
  studybuddy ask "Explain momentum" -o answer.md`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askCourse, "course", "c", "", "restrict to a course")
	askCmd.Flags().IntVarP(&askWeek, "week", "w", 0, "restrict to a week")
	askCmd.Flags().IntVarP(&askTopK, "limit", "n", 0, "max context chunks")
	askCmd.Flags().StringVarP(&askOutputFile, "output", "o", "", "write output to file")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	ctx := context.Background()

	qs, err := getQueryService()
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	scope := models.Scope{CourseName: askCourse}
	if askWeek > 0 {
		scope.WeekNumber = &askWeek
	}

	resp, err := qs.Query(ctx, service.QueryRequest{
		Mode:  models.ModeAnswer,
		Query: question,
		Scope: scope,
		TopK:  askTopK,
	})
	if errors.Is(err, models.ErrInsufficientContext) {
		fmt.Println("No relevant material found for this question.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	return printResponse(resp, askOutputFile)
}

// printResponse writes a generated response to stdout or a file, with
// cited chunks listed in verbose mode.
func printResponse(resp *models.GeneratedResponse, outputFile string) error {
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(resp.Text+"\n"), 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("Wrote response to %s\n", outputFile)
		return nil
	}

	fmt.Println(resp.Text)

	if resp.BroadScope {
		fmt.Println()
		fmt.Println(defaultTheme.hintStyle().Render(
			"Note: no material matched the requested scope, so all courses were used."))
	}
	if verbose && len(resp.CitedChunkIDs) > 0 {
		fmt.Println()
		fmt.Println(defaultTheme.hintStyle().Render(
			"Sources: " + strings.Join(resp.CitedChunkIDs, ", ")))
	}

	return nil
}
