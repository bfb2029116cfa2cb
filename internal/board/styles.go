package board

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Tegakist/DSS/pkg/flowsheet/models"
)

var statusColors = map[models.Status]lipgloss.Color{
	models.StatusDone:    lipgloss.Color("#4CAF50"),
	models.StatusWaiting: lipgloss.Color("#F7B801"),
	models.StatusBlocked: lipgloss.Color("#FF6B6B"),
	models.StatusPending: lipgloss.Color("#999999"),
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
)

func statusColor(s models.Status) lipgloss.Color {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return statusColors[models.StatusPending]
}

func cardStyle(s models.Status, selected bool, width int) lipgloss.Style {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(statusColor(s)).
		Padding(0, 1).
		Width(max(24, width))
	if selected {
		style = style.Border(lipgloss.ThickBorder())
	}
	return style
}

func badge(s models.Status) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#000000")).
		Background(statusColor(s)).
		Padding(0, 1).
		Render(string(s))
}
