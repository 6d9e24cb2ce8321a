package cli

import "github.com/charmbracelet/lipgloss"

// Theme holds the color scheme for CLI output.
type Theme struct {
	Heading lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Score   lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Heading: lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Score:   lipgloss.Color("#D7AF00"), // gold
}

func (t Theme) headingStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Heading).Bold(true)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) scoreStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Score)
}
