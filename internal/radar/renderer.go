package radar

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"pulsar.klederson.com/internal/config"
	"pulsar.klederson.com/internal/telemetry"
)

var (
	colorBgTop     = mustHex("#111111")
	colorBgBottom  = mustHex("#222222")
	colorGrid      = mustHex("#333333")
	colorBorder    = mustHex("#555555")
	colorWiFi      = mustHex("#FFD700")
	colorBLE       = mustHex("#00BFFF")
	colorBeacon    = mustHex("#E0E0E0")
	colorBeaconOff = mustHex("#666666")
	colorNominal   = mustHex("#00FF00")
	colorWarning   = mustHex("#FF0000")
	colorCV        = mustHex("#FF3030")
	colorLabel     = mustHex("#AAAAAA")
)

const (
	ringAlpha     = 0.45
	ringLostAlpha = 0.2
	trailAlpha    = 0.4
	discAlpha     = 0.2

	beaconRadiusPx   = 1.5
	receiverRadiusPx = 2.5
	cvRadiusPx       = 3.0
)

// Scene is everything a frame needs. The renderer never mutates it.
type Scene struct {
	Beacons       []config.Beacon
	Sample        *telemetry.Sample // latest raw sample, nil while disconnected
	Smoothed      telemetry.Position
	HasFix        bool // Smoothed is meaningful
	Trail         []telemetry.Position
	ShowTrail     bool
	GridStepM     float64
	AccuracyWarnM float64
}

// Renderer paints scenes onto a canvas sized to the radar panel.
type Renderer struct {
	room       Extent
	cols, rows int
	sized      bool
	tf         Transform
	valid      bool
	fits       int
	canvas     *Canvas
}

// NewRenderer creates a renderer for the given room.
func NewRenderer(room Extent) *Renderer {
	return &Renderer{room: room, canvas: NewCanvas(0, 0)}
}

// Transform returns the current mapping and whether it is usable.
func (r *Renderer) Transform() (Transform, bool) {
	return r.tf, r.valid
}

// Render draws one frame on a cols×rows cell surface. The room mapping is
// recomputed only when the size changes. A surface with no area yields "" and
// the frame is skipped.
func (r *Renderer) Render(cols, rows int, s Scene) string {
	if !r.sized || cols != r.cols || rows != r.rows {
		r.cols, r.rows, r.sized = cols, rows, true
		r.fits++
		tf, err := Fit(r.room, cols, rows*2)
		if err != nil {
			r.tf, r.valid = Transform{}, false
			return ""
		}
		r.tf, r.valid = tf, true
		r.canvas.Resize(cols, rows)
	}
	if !r.valid {
		return ""
	}

	c := r.canvas
	c.VerticalGradient(colorBgTop, colorBgBottom)
	c.ClearText()

	r.drawGrid(s.GridStepM)
	r.drawRings(s)
	r.drawBeacons(s)
	if s.ShowTrail {
		r.drawTrail(s.Trail)
	}
	if s.HasFix {
		r.drawReceiver(s)
	}
	if s.Sample != nil && s.Sample.CV != nil {
		p := r.tf.ToPixels(Point{s.Sample.CV.X, s.Sample.CV.Y})
		c.Circle(p.X, p.Y, cvRadiusPx, colorCV, 1, false)
		c.Disc(p.X, p.Y, 1, colorCV, 1)
	}

	return c.Render()
}

func (r *Renderer) drawGrid(step float64) {
	if step > 0 {
		for x := step; x < r.room.Width-step/2; x += step {
			r.line(Point{x, 0}, Point{x, r.room.Height}, colorGrid, 1)
		}
		for y := step; y < r.room.Height-step/2; y += step {
			r.line(Point{0, y}, Point{r.room.Width, y}, colorGrid, 1)
		}
	}

	tl := Point{0, 0}
	tr := Point{r.room.Width, 0}
	br := Point{r.room.Width, r.room.Height}
	bl := Point{0, r.room.Height}
	r.line(tl, tr, colorBorder, 1)
	r.line(tr, br, colorBorder, 1)
	r.line(br, bl, colorBorder, 1)
	r.line(bl, tl, colorBorder, 1)
}

func (r *Renderer) drawRings(s Scene) {
	if s.Sample == nil {
		return
	}
	for _, b := range s.Beacons {
		p := r.tf.ToPixels(Point{b.X, b.Y})
		if rd, ok := s.Sample.WiFi[b.ID]; ok {
			r.ring(p, rd, colorWiFi)
		}
		if rd, ok := s.Sample.BLE[b.ID]; ok {
			r.ring(p, rd, colorBLE)
		}
	}
}

func (r *Renderer) ring(center Point, rd telemetry.Reading, col colorful.Color) {
	if rd.Distance <= 0 {
		return
	}
	alpha := ringAlpha
	if !rd.Found {
		alpha = ringLostAlpha
	}
	r.canvas.Circle(center.X, center.Y, r.tf.Length(rd.Distance), col, alpha, !rd.Found)
}

func (r *Renderer) drawBeacons(s Scene) {
	c := r.canvas
	for _, b := range s.Beacons {
		p := r.tf.ToPixels(Point{b.X, b.Y})
		col := colorBeacon
		if s.Sample != nil && beaconLost(*s.Sample, b.ID) {
			col = colorBeaconOff
		}
		c.Disc(p.X, p.Y, beaconRadiusPx, col, 1)

		cellCol := int(math.Floor(p.X)) + 2
		if cellCol+len(b.ID) > r.cols {
			cellCol = int(math.Floor(p.X)) - len(b.ID) - 1
		}
		c.Text(cellCol, r.pixelRow(p.Y), b.ID, colorLabel)
	}
}

// beaconLost reports whether every reading for id says the beacon is unreachable.
func beaconLost(s telemetry.Sample, id string) bool {
	wifi, hasWiFi := s.WiFi[id]
	ble, hasBLE := s.BLE[id]
	if !hasWiFi && !hasBLE {
		return false
	}
	return (!hasWiFi || !wifi.Found) && (!hasBLE || !ble.Found)
}

func (r *Renderer) drawTrail(trail []telemetry.Position) {
	for i := 1; i < len(trail); i++ {
		r.line(Point{trail[i-1].X, trail[i-1].Y}, Point{trail[i].X, trail[i].Y}, colorNominal, trailAlpha)
	}
}

func (r *Renderer) drawReceiver(s Scene) {
	c := r.canvas
	pos := s.Smoothed
	p := r.tf.ToPixels(Point{pos.X, pos.Y})

	col := colorNominal
	if pos.Accuracy >= s.AccuracyWarnM {
		col = colorWarning
	}
	c.Disc(p.X, p.Y, r.tf.Length(pos.Accuracy), col, discAlpha)
	c.Disc(p.X, p.Y, receiverRadiusPx, col, 1)

	c.Text(1, r.rows-1, fmt.Sprintf("x %.2f  y %.2f  ±%.2fm", pos.X, pos.Y, pos.Accuracy), colorLabel)
}

func (r *Renderer) line(a, b Point, col colorful.Color, alpha float64) {
	pa := r.tf.ToPixels(a)
	pb := r.tf.ToPixels(b)
	r.canvas.Line(r.pixel(pa.X, r.tf.Width), r.pixel(pa.Y, r.tf.Height),
		r.pixel(pb.X, r.tf.Width), r.pixel(pb.Y, r.tf.Height), col, alpha)
}

// pixel snaps a continuous coordinate to an index, keeping the far room edge
// on the last pixel instead of one past it.
func (r *Renderer) pixel(v float64, limit int) int {
	return min(int(math.Floor(v)), limit-1)
}

func (r *Renderer) pixelRow(y float64) int {
	return r.pixel(y, r.tf.Height) / 2
}
