package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderRadarPanel wraps radar content with a styled border.
// The actual radar rendering is done externally to avoid import cycles.
func RenderRadarPanel(width, height int, radarContent, legend string) string {
	content := radarContent + "\n" + legend
	return StylePanelBorder.Width(width - 2).Height(height - 2).Render(content)
}

// RenderLegend explains the radar symbols on a single line.
func RenderLegend(width int) string {
	items := []string{
		StyleNominal.Render("●") + StyleLegend.Render(" receiver"),
		StyleWiFi.Render("○") + StyleLegend.Render(" wifi"),
		StyleBLE.Render("○") + StyleLegend.Render(" ble"),
		StyleCV.Render("◎") + StyleLegend.Render(" cv"),
		StyleLost.Render("┄") + StyleLegend.Render(" lost"),
	}
	legend := strings.Join(items, "  ")
	if lipgloss.Width(legend) > width {
		legend = strings.Join(items[:3], "  ")
	}
	return legend
}

// RenderRadarPlaceholder fills the radar area when no frame is available.
func RenderRadarPlaceholder(width, height int, msg string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, StyleHelp.Render(msg))
}
