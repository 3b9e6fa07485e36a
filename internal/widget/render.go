package widget

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"zero/internal/task"
)

var priorityColors = map[task.Priority]lipgloss.AdaptiveColor{
	task.High:   {Light: "#C62828", Dark: "#EF9A9A"},
	task.Medium: {Light: "#EF6C00", Dark: "#FFCC80"},
	task.Low:    {Light: "#2E7D32", Dark: "#A5D6A7"},
}

// Render draws the widget card. The theme picks fixed light or dark colors;
// System leaves the choice to the terminal background.
func Render(tasks []task.Task, theme task.Theme) string {
	fg, bg := colorsFor(theme)
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Foreground(fg).
		Background(bg)
	header := lipgloss.NewStyle().Bold(true).Foreground(fg)

	var b strings.Builder
	b.WriteString(header.Render("Pinned Tasks"))
	b.WriteString("\n")
	if len(tasks) == 0 {
		b.WriteString("No pinned tasks.")
		return card.Render(b.String())
	}
	for i, t := range tasks {
		if i > 0 {
			b.WriteString("\n")
		}
		dot := lipgloss.NewStyle().Foreground(priorityColors[t.Priority]).Render("●")
		b.WriteString(dot + " " + t.Title)
		b.WriteString("\n  Due: " + t.DueDate.Local().Format("Jan 02, 2006"))
	}
	return card.Render(b.String())
}

func colorsFor(theme task.Theme) (lipgloss.TerminalColor, lipgloss.TerminalColor) {
	switch theme {
	case task.ThemeLight:
		return lipgloss.Color("#000000"), lipgloss.Color("#FFFFFF")
	case task.ThemeDark:
		return lipgloss.Color("#FFFFFF"), lipgloss.Color("#242424")
	default:
		return lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"},
			lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#242424"}
	}
}
