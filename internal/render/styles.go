package render

import "github.com/charmbracelet/lipgloss"

const rule = "═══════════════════════════════════════════════════════════"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	ruleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	adviceStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("208")).
			Padding(0, 1)
)
