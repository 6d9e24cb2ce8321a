package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:   "courses [course]",
	Short: "List courses, or the weeks of one course",
	Long: `List all courses with transcript counts. With a course name, list
the weeks that have material.

Examples:
  studybuddy courses
  studybuddy courses ML101`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCourses,
}

func runCourses(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(args) == 1 {
		return runCourseWeeks(ctx, args[0])
	}

	courses, err := dbClient.ListCourses(ctx)
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}

	if len(courses) == 0 {
		fmt.Println("No courses found.")
		return nil
	}

	fmt.Printf("Courses (%d):\n\n", len(courses))
	for _, c := range courses {
		fmt.Printf("- %s (%d transcripts)\n", c.CourseName, c.Count)
	}

	return nil
}

func runCourseWeeks(ctx context.Context, course string) error {
	weeks, err := dbClient.ListWeeks(ctx, course)
	if err != nil {
		return fmt.Errorf("list weeks: %w", err)
	}

	if len(weeks) == 0 {
		fmt.Printf("No weeks with material found for %s.\n", course)
		return nil
	}

	fmt.Printf("%s has material for %d weeks:\n", course, len(weeks))
	for _, w := range weeks {
		fmt.Printf("- Week %d\n", w)
	}

	return nil
}
