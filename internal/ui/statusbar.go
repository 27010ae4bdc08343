package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Status is what the bottom bar reports.
type Status struct {
	State      string
	Connected  bool
	Attempts   int
	PxPerM     float64 // 0 while the radar has no usable size
	Samples    int
	History    int
	HistoryCap int
	Trail      bool
	FPS        int
	Frames     uint64
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s Status) string {
	state := StyleDisconnected.Render("[" + strings.ToUpper(s.State) + "]")
	if s.Connected {
		state = StyleConnected.Render("[" + strings.ToUpper(s.State) + "]")
	}

	scale := "--"
	if s.PxPerM > 0 {
		scale = fmt.Sprintf("%.1f", s.PxPerM)
	}
	trail := "off"
	if s.Trail {
		trail = "on"
	}

	info := fmt.Sprintf(" Dials: %d  Scale: %s px/m  Samples: %d  History: %d/%d  Trail: %s  %dfps #%d",
		s.Attempts, scale, s.Samples, s.History, s.HistoryCap, trail, s.FPS, s.Frames)

	content := state + info

	gap := width - 2 - lipgloss.Width(content)
	if gap < 0 {
		gap = 0
	}

	return StyleStatusBar.Width(width).MaxHeight(1).Render(content + strings.Repeat(" ", gap))
}
