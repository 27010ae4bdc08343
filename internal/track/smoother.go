package track

import "pulsar.klederson.com/internal/telemetry"

// Smoother eases the rendered receiver position toward the latest raw fix with a
// first-order exponential moving average, one step per frame.
type Smoother struct {
	alpha  float64
	state  telemetry.Position
	latest telemetry.Position
	has    bool
}

// NewSmoother creates a smoother with the given factor in (0,1].
func NewSmoother(alpha float64) *Smoother {
	return &Smoother{alpha: alpha}
}

// Update records the newest raw fix. It does not move the smoothed state.
func (s *Smoother) Update(p telemetry.Position) {
	s.latest = p
	s.has = true
}

// Tick advances the smoothed state one step toward the latest fix and returns it.
// Before any fix arrives it returns the zero position.
func (s *Smoother) Tick() telemetry.Position {
	if !s.has {
		return s.state
	}
	s.state.X += (s.latest.X - s.state.X) * s.alpha
	s.state.Y += (s.latest.Y - s.state.Y) * s.alpha
	s.state.Accuracy += (s.latest.Accuracy - s.state.Accuracy) * s.alpha
	return s.state
}

// Value returns the current smoothed state without advancing it.
func (s *Smoother) Value() telemetry.Position {
	return s.state
}

// HasSample reports whether any fix has been recorded.
func (s *Smoother) HasSample() bool {
	return s.has
}

// Reset returns the smoother to its zero state.
func (s *Smoother) Reset() {
	s.state = telemetry.Position{}
	s.latest = telemetry.Position{}
	s.has = false
}
