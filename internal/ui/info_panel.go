package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"pulsar.klederson.com/internal/telemetry"
)

// Info is the read-only view of the tracker state shown next to the radar.
type Info struct {
	Sample        *telemetry.Sample
	Smoothed      telemetry.Position
	HasFix        bool
	Accuracy      []float64 // oldest first
	TrailLength   float64
	AccuracyWarnM float64
	Now           time.Time
}

// RenderInfoPanel renders the position, fusion and environment cards.
func RenderInfoPanel(info Info, width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}

	lines := []string{
		StylePanelTitle.Render("POSITION"),
		StyleSeparator.Render(strings.Repeat("-", innerW)),
	}

	s := info.Sample
	if s == nil {
		lines = append(lines, "", StyleHelp.Render(" Waiting for position data..."))
		return panel(StylePanelBorder, lines, width, height)
	}

	acc := StyleNominal
	if s.Position.Accuracy >= info.AccuracyWarnM {
		acc = StyleWarning
	}
	lines = append(lines,
		field("X", fmt.Sprintf("%.2f m", s.Position.X), StyleValue),
		field("Y", fmt.Sprintf("%.2f m", s.Position.Y), StyleValue),
		field("Accuracy", fmt.Sprintf("±%.2f m", s.Position.Accuracy), acc),
	)
	if info.HasFix {
		lines = append(lines, field("Smoothed", fmt.Sprintf("%.2f, %.2f", info.Smoothed.X, info.Smoothed.Y), StyleValue))
	}
	if s.CV != nil {
		lines = append(lines, field("CV", fmt.Sprintf("%.2f, %.2f ±%.2f", s.CV.X, s.CV.Y, s.CV.Accuracy), StyleCV))
	}
	lines = append(lines, field("Updated", formatAge(info.Now, s.Timestamp), StyleValue))

	barW := innerW - 20
	if barW < 5 {
		barW = 5
	}
	lines = append(lines, "",
		StyleLabel.Render("  Fusion"),
		"  "+StyleWiFi.Render("WiFi ")+renderWeightBar(s.Fusion.WiFiWeight, barW, StyleWiFi)+
			StyleValue.Render(fmt.Sprintf(" %3.0f%%", s.Fusion.WiFiWeight*100)),
		"  "+StyleBLE.Render("BLE  ")+renderWeightBar(s.Fusion.BLEWeight, barW, StyleBLE)+
			StyleValue.Render(fmt.Sprintf(" %3.0f%%", s.Fusion.BLEWeight*100)),
	)

	if env := s.Environment; env != nil {
		lines = append(lines, "",
			StyleLabel.Render("  Environment"),
			field("Temp", fmt.Sprintf("%.1f °C", env.Temperature), StyleEnv),
			field("Humidity", fmt.Sprintf("%.1f %%", env.Humidity), StyleEnv),
		)
	}

	if len(info.Accuracy) > 0 {
		lines = append(lines, "",
			StyleLabel.Render("  Accuracy history"),
			"  "+acc.UnsetBold().Render(renderSparkline(info.Accuracy, innerW-4)),
		)
	}
	lines = append(lines, field("Trail", fmt.Sprintf("%.2f m", info.TrailLength), StyleValue))

	return panel(StylePanelBorder, lines, width, height)
}

func field(label, value string, sty lipgloss.Style) string {
	return StyleLabel.Render(fmt.Sprintf("  %-10s", label)) + sty.Render(value)
}

// renderWeightBar maps a 0..1 fusion weight onto a bar. Values outside the
// range are clamped for drawing only; the caller prints the raw weight.
func renderWeightBar(weight float64, width int, sty lipgloss.Style) string {
	ratio := weight
	if math.IsNaN(ratio) || ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(math.Round(ratio * float64(width)))

	return StyleHelp.Render("[") +
		sty.Render(strings.Repeat("|", filled)) +
		StyleHelp.Render(strings.Repeat("-", width-filled)) +
		StyleHelp.Render("]")
}

func renderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	chars := []byte{'_', '.', '-', '~', '^'}

	// Take last `width` values
	if len(values) > width {
		values = values[len(values)-width:]
	}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	rng := maxV - minV
	if rng == 0 {
		rng = 1
	}

	var sb strings.Builder
	for _, v := range values {
		idx := int((v - minV) / rng * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		sb.WriteByte(chars[idx])
	}
	return sb.String()
}

// formatAge renders how long ago a millisecond timestamp was.
func formatAge(now time.Time, tsMillis int64) string {
	if tsMillis <= 0 {
		return "-"
	}
	d := now.Sub(time.UnixMilli(tsMillis))
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	default:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
}
