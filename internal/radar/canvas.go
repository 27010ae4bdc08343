package radar

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// halfBlock paints its top half in the foreground colour and its bottom half
// in the background colour, so one terminal cell holds two stacked pixels.
const halfBlock = "▀"

const maxCachedStyles = 4096

// mustHex parses a "#rrggbb" palette constant.
func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

type label struct {
	ch rune
	fg colorful.Color
}

// Canvas is an RGB raster whose pixels map two-per-cell onto a terminal grid.
type Canvas struct {
	w, h   int
	px     []colorful.Color
	labels map[int]label // key: cellRow*w + col
	styles map[[2]string]lipgloss.Style
}

// NewCanvas creates a canvas of cols×rows terminal cells (cols × rows*2 pixels).
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{styles: make(map[[2]string]lipgloss.Style)}
	c.Resize(cols, rows)
	return c
}

// Resize reallocates the raster. Contents are discarded.
func (c *Canvas) Resize(cols, rows int) {
	c.w, c.h = max(cols, 0), max(rows*2, 0)
	c.px = make([]colorful.Color, c.w*c.h)
	c.labels = make(map[int]label)
}

// Size returns the raster size in pixels.
func (c *Canvas) Size() (w, h int) { return c.w, c.h }

func (c *Canvas) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.w && y < c.h
}

// At returns the pixel at (x, y), black when out of bounds.
func (c *Canvas) At(x, y int) colorful.Color {
	if !c.inside(x, y) {
		return colorful.Color{}
	}
	return c.px[y*c.w+x]
}

// Set overwrites one pixel. Out of bounds writes are ignored.
func (c *Canvas) Set(x, y int, col colorful.Color) {
	if c.inside(x, y) {
		c.px[y*c.w+x] = col
	}
}

// Blend mixes col over the pixel at (x, y) with the given opacity.
func (c *Canvas) Blend(x, y int, col colorful.Color, alpha float64) {
	if !c.inside(x, y) {
		return
	}
	i := y*c.w + x
	c.px[i] = c.px[i].BlendRgb(col, clamp01(alpha)).Clamped()
}

// VerticalGradient fills the canvas from top to bottom.
func (c *Canvas) VerticalGradient(top, bottom colorful.Color) {
	for y := 0; y < c.h; y++ {
		t := 0.0
		if c.h > 1 {
			t = float64(y) / float64(c.h-1)
		}
		row := top.BlendRgb(bottom, t)
		for x := 0; x < c.w; x++ {
			c.px[y*c.w+x] = row
		}
	}
}

// ClearText removes every text overlay.
func (c *Canvas) ClearText() {
	clear(c.labels)
}

// Line draws a Bresenham line between two pixels. The segment is clipped to
// the raster first, so far-off endpoints cost nothing extra.
func (c *Canvas) Line(x0, y0, x1, y1 int, col colorful.Color, alpha float64) {
	var ok bool
	if x0, y0, x1, y1, ok = c.clip(x0, y0, x1, y1); !ok {
		return
	}
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.Blend(x0, y0, col, alpha)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// clip cuts a segment to the raster (Liang-Barsky). It reports false when the
// segment misses the raster entirely.
func (c *Canvas) clip(x0, y0, x1, y1 int) (int, int, int, int, bool) {
	if c.w == 0 || c.h == 0 {
		return 0, 0, 0, 0, false
	}
	if c.inside(x0, y0) && c.inside(x1, y1) {
		return x0, y0, x1, y1, true
	}
	fx0, fy0 := float64(x0), float64(y0)
	dx, dy := float64(x1-x0), float64(y1-y0)
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, fx0},
		{dx, float64(c.w-1) - fx0},
		{-dy, fy0},
		{dy, float64(c.h-1) - fy0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			t0 = math.Max(t0, t)
		} else {
			t1 = math.Min(t1, t)
		}
		if t0 > t1 {
			return 0, 0, 0, 0, false
		}
	}
	cx0 := clampInt(int(math.Round(fx0+t0*dx)), 0, c.w-1)
	cy0 := clampInt(int(math.Round(fy0+t0*dy)), 0, c.h-1)
	cx1 := clampInt(int(math.Round(fx0+t1*dx)), 0, c.w-1)
	cy1 := clampInt(int(math.Round(fy0+t1*dy)), 0, c.h-1)
	return cx0, cy0, cx1, cy1, true
}

// Circle outlines a circle centred at (cx, cy) in pixel space. Dashed circles
// skip every other arc segment. Each pixel is blended at most once. Only the
// arc that can touch the raster is walked, so the cost is bounded by the
// canvas size however large r gets.
func (c *Canvas) Circle(cx, cy, r float64, col colorful.Color, alpha float64, dashed bool) {
	if r <= 0 || c.w == 0 || c.h == 0 {
		return
	}

	// distance from the centre to the nearest and farthest raster points
	nx := math.Max(0, math.Max(-cx, cx-float64(c.w)))
	ny := math.Max(0, math.Max(-cy, cy-float64(c.h)))
	fx := math.Max(math.Abs(cx), math.Abs(cx-float64(c.w)))
	fy := math.Max(math.Abs(cy), math.Abs(cy-float64(c.h)))
	if r < math.Hypot(nx, ny)-1 || r > math.Hypot(fx, fy)+1 {
		return
	}

	steps := max(16, int(2*math.Pi*r*2))
	from, to := 0, steps
	if steps > maxCircleSteps {
		// Large circle: the visible part lies within the angle the raster
		// subtends from the centre. Walk only that window.
		from, to = c.visibleArc(cx, cy, r, steps)
	}

	seen := make(map[int]struct{}, min(to-from, c.w*c.h))
	for i := from; i < to; i++ {
		j := ((i % steps) + steps) % steps
		if dashed && (j*16/steps)%2 == 1 {
			continue
		}
		a := 2 * math.Pi * float64(j) / float64(steps)
		x := int(math.Floor(cx + r*math.Cos(a)))
		y := int(math.Floor(cy + r*math.Sin(a)))
		if !c.inside(x, y) {
			continue
		}
		key := y*c.w + x
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		c.Blend(x, y, col, alpha)
	}
}

const maxCircleSteps = 4096

// visibleArc returns the step window [from, to) covering every angle at which
// a circle of radius r around (cx, cy) can cross the raster. The window is
// derived from the angles of the raster corners; when the centre lies inside
// the raster the whole circle is returned.
func (c *Canvas) visibleArc(cx, cy, r float64, steps int) (int, int) {
	if cx >= 0 && cx <= float64(c.w) && cy >= 0 && cy <= float64(c.h) {
		return 0, steps
	}
	mid := math.Atan2(float64(c.h)/2-cy, float64(c.w)/2-cx)
	half := 0.0
	for _, p := range [4][2]float64{{0, 0}, {float64(c.w), 0}, {0, float64(c.h)}, {float64(c.w), float64(c.h)}} {
		d := math.Abs(math.Remainder(math.Atan2(p[1]-cy, p[0]-cx)-mid, 2*math.Pi))
		half = math.Max(half, d)
	}
	perStep := 2 * math.Pi / float64(steps)
	from := int(math.Floor((mid-half)/perStep)) - 1
	to := int(math.Ceil((mid+half)/perStep)) + 2
	if to-from >= steps {
		return 0, steps
	}
	return from, to
}

// Disc fills every pixel whose centre lies within r of (cx, cy).
func (c *Canvas) Disc(cx, cy, r float64, col colorful.Color, alpha float64) {
	if r <= 0 {
		return
	}
	x0 := max(int(math.Floor(cx-r)), 0)
	x1 := min(int(math.Ceil(cx+r)), c.w-1)
	y0 := max(int(math.Floor(cy-r)), 0)
	y1 := min(int(math.Ceil(cy+r)), c.h-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= r*r {
				c.Blend(x, y, col, alpha)
			}
		}
	}
}

// Text writes a string starting at terminal cell (col, row). Characters that
// fall outside the canvas are dropped.
func (c *Canvas) Text(col, row int, s string, fg colorful.Color) {
	if row < 0 || row*2 >= c.h {
		return
	}
	for i, ch := range []rune(s) {
		x := col + i
		if x < 0 || x >= c.w {
			continue
		}
		c.labels[row*c.w+x] = label{ch: ch, fg: fg}
	}
}

// Render returns the canvas as rows of styled half-block cells.
func (c *Canvas) Render() string {
	rows := c.h / 2
	var sb strings.Builder
	for row := 0; row < rows; row++ {
		for col := 0; col < c.w; col++ {
			top := c.px[(2*row)*c.w+col]
			bottom := c.px[(2*row+1)*c.w+col]
			if l, ok := c.labels[row*c.w+col]; ok {
				bg := top.BlendRgb(bottom, 0.5)
				sb.WriteString(c.style(l.fg.Hex(), bg.Hex()).Render(string(l.ch)))
				continue
			}
			sb.WriteString(c.style(top.Hex(), bottom.Hex()).Render(halfBlock))
		}
		if row < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (c *Canvas) style(fg, bg string) lipgloss.Style {
	key := [2]string{fg, bg}
	if s, ok := c.styles[key]; ok {
		return s
	}
	if len(c.styles) >= maxCachedStyles {
		clear(c.styles)
	}
	s := lipgloss.NewStyle().Foreground(lipgloss.Color(fg)).Background(lipgloss.Color(bg))
	c.styles[key] = s
	return s
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
