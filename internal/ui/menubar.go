package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pulsar.klederson.com/internal/config"
)

// ConnIndicator renders the connectivity badge.
func ConnIndicator(connected bool) string {
	if connected {
		return StyleConnected.Render("● CONNECTED")
	}
	return StyleDisconnected.Render("● DISCONNECTED")
}

// RenderMenuBar renders the top bar: title, key help and the connectivity badge.
func RenderMenuBar(width int, connected bool, endpoint, help string) string {
	title := StyleTitle.Render(fmt.Sprintf("%s v%s", config.AppName, config.AppVersion))

	left := title + "  " + help
	right := ConnIndicator(connected) + "  " + StyleLabel.Render(endpoint)

	inner := width - 2
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// drop the endpoint before the badge
		right = ConnIndicator(connected)
		gap = inner - lipgloss.Width(left) - lipgloss.Width(right)
	}
	if gap < 0 {
		gap = 0
	}

	return StyleMenuBar.Width(width).MaxHeight(1).Render(left + strings.Repeat(" ", gap) + right)
}
