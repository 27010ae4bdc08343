package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"pulsar.klederson.com/internal/telemetry"
	"pulsar.klederson.com/internal/track"
)

// SidePanel selects what the lower right panel lists.
type SidePanel int

const (
	PanelBeacons SidePanel = iota
	PanelHistory
)

func (p SidePanel) Next() SidePanel {
	if p == PanelBeacons {
		return PanelHistory
	}
	return PanelBeacons
}

// BeaconRows flattens the WiFi and BLE tables of a sample into display
// lines: a header per technology followed by one row per beacon.
func BeaconRows(s *telemetry.Sample, width int) []string {
	if s == nil {
		return []string{"", StyleHelp.Render(" No beacon readings...")}
	}
	var rows []string
	rows = append(rows, beaconTable("WIFI", s.WiFi, StyleWiFi, width)...)
	rows = append(rows, "")
	rows = append(rows, beaconTable("BLE", s.BLE, StyleBLE, width)...)
	return rows
}

func beaconTable(title string, readings map[string]telemetry.Reading, sty lipgloss.Style, width int) []string {
	rows := []string{sty.Bold(true).Render(fmt.Sprintf(" %s [%d]", title, len(readings)))}
	if len(readings) == 0 {
		return append(rows, StyleHelp.Render("   none"))
	}
	for _, id := range telemetry.BeaconIDs(readings) {
		r := readings[id]
		if !r.Found {
			// stale readings stay visible, dimmed
			raw := fmt.Sprintf("   ✗ %-10s %4ddBm  %5.2fm lost", id, r.RSSI, r.Distance)
			rows = append(rows, StyleLost.Render(truncRaw(raw, width)))
			continue
		}
		raw := fmt.Sprintf("   ✓ %-10s %4ddBm  %5.2fm", id, r.RSSI, r.Distance)
		rows = append(rows, sty.Render(truncRaw(raw, width)))
	}
	return rows
}

// HistoryRows renders recorded entries, newest first, one per line.
func HistoryRows(entries []track.Entry, width int) []string {
	if len(entries) == 0 {
		return []string{"", StyleHelp.Render(" No movement recorded...")}
	}
	rows := make([]string, 0, len(entries))
	for i, e := range entries {
		p := e.Sample.Position
		raw := fmt.Sprintf(" %2d  %s  x %.2f  y %.2f  ±%.2f",
			i+1, e.RecordedAt.Format(time.TimeOnly), p.X, p.Y, p.Accuracy)
		sty := StyleValue
		if i > 0 {
			sty = StyleLabel
		}
		rows = append(rows, sty.Render(truncRaw(raw, width)))
	}
	return rows
}

// RenderSidePanel renders a scrollable list under a fixed title. The scroll
// offset is clamped so the last row stays visible.
func RenderSidePanel(title string, rows []string, width, height, scroll int) string {
	innerW := max(width-4, 10)

	header := []string{
		StylePanelTitle.Render(title),
		StyleSeparator.Render(strings.Repeat("-", innerW)),
	}
	space := max(height-2-len(header), 1)

	scroll = ClampScroll(scroll, len(rows), space)
	end := min(scroll+space, len(rows))

	lines := append(header, rows[scroll:end]...)
	return panel(StylePanelActive, lines, width, height)
}

// ClampScroll bounds a scroll offset for n rows in a viewport of size rows.
func ClampScroll(scroll, n, size int) int {
	limit := max(n-size, 0)
	return max(0, min(scroll, limit))
}
