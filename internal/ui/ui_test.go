package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsar.klederson.com/internal/telemetry"
	"pulsar.klederson.com/internal/track"
)

func sample() *telemetry.Sample {
	return &telemetry.Sample{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli(),
		Position:  telemetry.Position{X: 0.5, Y: 0.75, Accuracy: 0.3},
		WiFi: map[string]telemetry.Reading{
			"beacon2": {RSSI: -70, Distance: 1.2, Found: true},
			"beacon1": {RSSI: -60, Distance: 0.8, Found: true},
		},
		BLE: map[string]telemetry.Reading{
			"beacon3": {RSSI: -95, Distance: 2.5, Found: false},
		},
		Fusion:      telemetry.Fusion{WiFiWeight: 0.6, BLEWeight: 0.4},
		Environment: &telemetry.Environment{Temperature: 21.5, Humidity: 40},
	}
}

func TestConnIndicator(t *testing.T) {
	assert.Contains(t, ConnIndicator(true), "● CONNECTED")
	assert.Contains(t, ConnIndicator(false), "● DISCONNECTED")
}

func TestRenderMenuBar_Width(t *testing.T) {
	out := RenderMenuBar(100, true, "ws://localhost:8080/ws", "q quit")
	assert.Equal(t, 100, lipgloss.Width(out))
	assert.Contains(t, out, "PULSAR")
	assert.Contains(t, out, "CONNECTED")
	assert.Contains(t, out, "ws://localhost:8080/ws")
}

func TestRenderStatusBar(t *testing.T) {
	out := RenderStatusBar(160, Status{
		State: "open", Connected: true, PxPerM: 133.333,
		Samples: 7, History: 3, HistoryCap: 50, Trail: true, FPS: 30,
	})
	assert.Contains(t, out, "[OPEN]")
	assert.Contains(t, out, "Scale: 133.3 px/m")
	assert.Contains(t, out, "Samples: 7")
	assert.Contains(t, out, "History: 3/50")
	assert.Contains(t, out, "Trail: on")

	out = RenderStatusBar(160, Status{State: "idle"})
	assert.Contains(t, out, "Scale: -- px/m")
	assert.Contains(t, out, "Trail: off")
}

func TestRenderInfoPanel(t *testing.T) {
	now := time.UnixMilli(sample().Timestamp).Add(3 * time.Second)

	t.Run("waiting", func(t *testing.T) {
		out := RenderInfoPanel(Info{Now: now}, 40, 12)
		assert.Contains(t, out, "Waiting for position data")
		assert.Len(t, strings.Split(out, "\n"), 12)
	})

	t.Run("full", func(t *testing.T) {
		out := RenderInfoPanel(Info{
			Sample:        sample(),
			Smoothed:      telemetry.Position{X: 0.4, Y: 0.7},
			HasFix:        true,
			Accuracy:      []float64{0.5, 0.4, 0.3},
			TrailLength:   1.25,
			AccuracyWarnM: 2,
			Now:           now,
		}, 48, 30)
		assert.Contains(t, out, "0.50 m")
		assert.Contains(t, out, "±0.30 m")
		assert.Contains(t, out, "0.40, 0.70")
		assert.Contains(t, out, " 60%")
		assert.Contains(t, out, " 40%")
		assert.Contains(t, out, "21.5 °C")
		assert.Contains(t, out, "3s ago")
		assert.Contains(t, out, "1.25 m")
		assert.Len(t, strings.Split(out, "\n"), 30)
	})

	t.Run("no environment", func(t *testing.T) {
		s := sample()
		s.Environment = nil
		out := RenderInfoPanel(Info{Sample: s, AccuracyWarnM: 2, Now: now}, 48, 30)
		assert.NotContains(t, out, "Environment")
	})
}

func TestRenderWeightBar(t *testing.T) {
	tests := []struct {
		weight float64
		filled int
	}{
		{0, 0},
		{0.5, 5},
		{1, 10},
		{1.7, 10},
		{-0.2, 0},
	}
	for _, tt := range tests {
		bar := renderWeightBar(tt.weight, 10, StyleWiFi)
		assert.Equal(t, tt.filled, strings.Count(bar, "|"), "weight %v", tt.weight)
		assert.Equal(t, 12, lipgloss.Width(bar))
	}
}

func TestRenderSparkline(t *testing.T) {
	assert.Equal(t, "", renderSparkline(nil, 10))
	assert.Equal(t, "_^", renderSparkline([]float64{1, 2}, 10))
	assert.Equal(t, "___", renderSparkline([]float64{3, 3, 3}, 10))
	assert.Equal(t, "_-^", renderSparkline([]float64{9, 9, 0, 1, 2}, 3))
}

func TestFormatAge(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ts := base.UnixMilli()

	assert.Equal(t, "-", formatAge(base, 0))
	assert.Equal(t, "now", formatAge(base.Add(200*time.Millisecond), ts))
	assert.Equal(t, "12s ago", formatAge(base.Add(12*time.Second), ts))
	assert.Equal(t, "2m ago", formatAge(base.Add(150*time.Second), ts))
}

func TestBeaconRows(t *testing.T) {
	rows := BeaconRows(sample(), 40)
	text := strings.Join(rows, "\n")

	assert.Contains(t, rows[0], "WIFI [2]")
	assert.Less(t, strings.Index(text, "beacon1"), strings.Index(text, "beacon2"))
	assert.Contains(t, text, "BLE [1]")

	var lost string
	for _, r := range rows {
		if strings.Contains(r, "beacon3") {
			lost = r
		}
	}
	require.NotEmpty(t, lost)
	assert.Contains(t, lost, "✗")
	assert.Contains(t, lost, "lost")
	assert.Contains(t, lost, "-95dBm")
	assert.Contains(t, lost, "2.50m")

	assert.Contains(t, strings.Join(BeaconRows(nil, 40), ""), "No beacon readings")
}

func TestHistoryRows(t *testing.T) {
	at := time.Date(2026, 5, 1, 9, 30, 15, 0, time.Local)
	entries := []track.Entry{
		{Sample: telemetry.Sample{Position: telemetry.Position{X: 1, Y: 1, Accuracy: 0.2}}, RecordedAt: at},
		{Sample: telemetry.Sample{Position: telemetry.Position{X: 0.5, Y: 0.25}}, RecordedAt: at.Add(-time.Second)},
	}
	rows := HistoryRows(entries, 60)
	require.Len(t, rows, 2)
	assert.Contains(t, rows[0], "09:30:15")
	assert.Contains(t, rows[0], "x 1.00  y 1.00  ±0.20")
	assert.Contains(t, rows[1], "09:30:14")

	assert.Contains(t, strings.Join(HistoryRows(nil, 60), ""), "No movement recorded")
}

func TestClampScroll(t *testing.T) {
	tests := []struct {
		scroll, n, size, want int
	}{
		{0, 10, 4, 0},
		{3, 10, 4, 3},
		{9, 10, 4, 6},
		{-2, 10, 4, 0},
		{5, 3, 4, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampScroll(tt.scroll, tt.n, tt.size))
	}
}

func TestRenderSidePanel_Scrolls(t *testing.T) {
	rows := []string{"row-a", "row-b", "row-c", "row-d", "row-e"}

	// 8 lines: 2 border, 2 header, 4 rows
	out := RenderSidePanel("LIST", rows, 30, 8, 1)
	assert.Len(t, strings.Split(out, "\n"), 8)
	assert.NotContains(t, out, "row-a")
	assert.Contains(t, out, "row-b")
	assert.Contains(t, out, "row-e")

	out = RenderSidePanel("LIST", rows, 30, 8, 99)
	assert.Contains(t, out, "row-e")
	assert.NotContains(t, out, "row-a")
}

func TestTruncRaw(t *testing.T) {
	assert.Equal(t, "ab  ", truncRaw("ab", 4))
	assert.Equal(t, "✓ ab", truncRaw("✓ abcdef", 4))
	assert.Equal(t, "", truncRaw("abc", 0))
}

func TestSidePanelNext(t *testing.T) {
	assert.Equal(t, PanelHistory, PanelBeacons.Next())
	assert.Equal(t, PanelBeacons, PanelHistory.Next())
}

func TestRenderLegend(t *testing.T) {
	assert.Contains(t, RenderLegend(80), "receiver")
	assert.NotContains(t, RenderLegend(20), "lost")
}
