package radar

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateSurface is returned when the drawing surface has no area.
var ErrDegenerateSurface = errors.New("degenerate drawing surface")

// Extent is a physical room size in meters.
type Extent struct {
	Width  float64
	Height float64
}

// Point is a 2D coordinate, in meters or pixels depending on context.
type Point struct {
	X float64
	Y float64
}

// Transform maps room coordinates onto a pixel surface with a single scale
// factor, centering the room on the axis with spare room.
type Transform struct {
	Scale   float64 // pixels per meter
	OffsetX float64
	OffsetY float64
	Width   int // surface size in pixels
	Height  int
}

// Fit computes the transform that places room on a w×h pixel surface.
func Fit(room Extent, w, h int) (Transform, error) {
	if w <= 0 || h <= 0 {
		return Transform{}, fmt.Errorf("%w: %dx%d", ErrDegenerateSurface, w, h)
	}
	if room.Width <= 0 || room.Height <= 0 {
		return Transform{}, fmt.Errorf("room extent must be positive, got %gx%g", room.Width, room.Height)
	}

	pw, ph := float64(w), float64(h)
	scale := math.Min(pw/room.Width, ph/room.Height)

	return Transform{
		Scale:   scale,
		OffsetX: (pw - room.Width*scale) / 2,
		OffsetY: (ph - room.Height*scale) / 2,
		Width:   w,
		Height:  h,
	}, nil
}

// ToPixels converts a room point to pixel coordinates.
func (t Transform) ToPixels(p Point) Point {
	return Point{
		X: t.OffsetX + p.X*t.Scale,
		Y: t.OffsetY + p.Y*t.Scale,
	}
}

// ToPhysical converts pixel coordinates back to a room point.
func (t Transform) ToPhysical(p Point) Point {
	return Point{
		X: (p.X - t.OffsetX) / t.Scale,
		Y: (p.Y - t.OffsetY) / t.Scale,
	}
}

// Length converts a distance in meters to pixels.
func (t Transform) Length(meters float64) float64 {
	return meters * t.Scale
}
