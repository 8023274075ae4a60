package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/studytracker/internal/workflow"
)

// Border styles
var (
	StyleFocusedBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62"))

	StyleUnfocusedBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))
)

// UI element styles
var (
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	StyleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	StyleMuted = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	StyleSelected = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("0"))
)

// Styles holds the theme-dependent styles.
type Styles struct {
	State      map[workflow.TaskState]lipgloss.Style
	Error      lipgloss.Style
	Info       lipgloss.Style
	ActiveTab  lipgloss.Style
	PassiveTab lipgloss.Style
}

// NewStyles builds styles from theme colours keyed by "pending",
// "in_progress", "completed" and "error". Missing keys fall back to
// terminal palette colours.
func NewStyles(theme map[string]string) Styles {
	colour := func(key, fallback string) lipgloss.Color {
		if c, ok := theme[key]; ok && c != "" {
			return lipgloss.Color(c)
		}
		return lipgloss.Color(fallback)
	}

	pending := colour("pending", "240")
	inProgress := colour("in_progress", "yellow")
	completed := colour("completed", "green")

	return Styles{
		State: map[workflow.TaskState]lipgloss.Style{
			workflow.StatePending:    lipgloss.NewStyle().Foreground(pending).Bold(true),
			workflow.StateInProgress: lipgloss.NewStyle().Foreground(inProgress).Bold(true),
			workflow.StateCompleted:  lipgloss.NewStyle().Foreground(completed).Bold(true),
		},
		Error:      lipgloss.NewStyle().Foreground(colour("error", "red")).Bold(true),
		Info:       lipgloss.NewStyle().Foreground(completed),
		ActiveTab:  lipgloss.NewStyle().Bold(true).Underline(true).Padding(0, 1),
		PassiveTab: lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
	}
}
