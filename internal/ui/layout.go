package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// ComposeLayout puts the radar on the left, the info panel above the side
// list on the right, with menu bar on top and status bar on bottom.
func ComposeLayout(menuBar, radarPanel, infoPanel, sidePanel, statusBar string) string {
	right := lipgloss.JoinVertical(lipgloss.Left, infoPanel, sidePanel)
	middle := lipgloss.JoinHorizontal(lipgloss.Top, radarPanel, right)
	return lipgloss.JoinVertical(lipgloss.Left, menuBar, middle, statusBar)
}

// panel draws lines inside a bordered box of exactly width×height cells.
func panel(sty lipgloss.Style, lines []string, width, height int) string {
	innerH := max(height-2, 1)
	if len(lines) > innerH {
		lines = lines[:innerH]
	}

	rendered := sty.Width(width - 2).Height(innerH).Render(strings.Join(lines, "\n"))

	// lipgloss Height() only sets a minimum; it won't truncate overflow.
	out := strings.Split(rendered, "\n")
	if len(out) > height {
		out = out[:height]
	}
	for len(out) < height {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

// truncRaw pads or truncates an unstyled string to exactly w cells.
func truncRaw(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return runewidth.FillRight(runewidth.Truncate(s, w, ""), w)
}
