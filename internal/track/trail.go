package track

import "pulsar.klederson.com/internal/telemetry"

// Trail keeps the most recent raw positions for the polyline overlay.
type Trail struct {
	points *Ring[telemetry.Position]
}

// NewTrail creates a trail of at most n points.
func NewTrail(n int) *Trail {
	return &Trail{points: NewRing[telemetry.Position](n)}
}

// Push appends a raw position.
func (t *Trail) Push(p telemetry.Position) {
	t.points.Push(p)
}

// Points returns the trail oldest to newest.
func (t *Trail) Points() []telemetry.Position {
	return t.points.Values()
}

// Len returns the number of points held.
func (t *Trail) Len() int { return t.points.Len() }

// PathLength sums the segment lengths along the trail, in meters.
func (t *Trail) PathLength() float64 {
	pts := t.points.Values()
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += Distance(pts[i-1], pts[i])
	}
	return total
}

// Clear drops every point.
func (t *Trail) Clear() { t.points.Clear() }
