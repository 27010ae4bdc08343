package track

import (
	"time"

	"gonum.org/v1/gonum/floats"

	"pulsar.klederson.com/internal/telemetry"
)

// Entry is a recorded sample and the time it was recorded.
type Entry struct {
	Sample     telemetry.Sample
	RecordedAt time.Time
}

// History is a bounded log of samples, recorded only when the receiver moved
// more than a threshold since the last recorded entry.
type History struct {
	threshold float64
	entries   *Ring[Entry]
	now       func() time.Time
}

// NewHistory creates a recorder with the given movement threshold (meters) and
// maximum entry count.
func NewHistory(threshold float64, capacity int) *History {
	return &History{
		threshold: threshold,
		entries:   NewRing[Entry](capacity),
		now:       time.Now,
	}
}

// Consider records s if the log is empty or s moved strictly more than the
// threshold from the last recorded position. It reports whether s was recorded.
func (h *History) Consider(s telemetry.Sample) bool {
	if last, ok := h.entries.Last(); ok {
		if Distance(last.Sample.Position, s.Position) <= h.threshold {
			return false
		}
	}
	h.entries.Push(Entry{Sample: s.Clone(), RecordedAt: h.now()})
	return true
}

// Snapshot returns a copy of the log, newest first.
func (h *History) Snapshot() []Entry {
	entries := h.entries.Newest()
	for i := range entries {
		entries[i].Sample = entries[i].Sample.Clone()
	}
	return entries
}

// Latest returns the most recently recorded entry.
func (h *History) Latest() (Entry, bool) {
	e, ok := h.entries.Last()
	if ok {
		e.Sample = e.Sample.Clone()
	}
	return e, ok
}

// Len returns the number of recorded entries.
func (h *History) Len() int { return h.entries.Len() }

// Cap returns the maximum number of entries.
func (h *History) Cap() int { return h.entries.Cap() }

// Clear drops every entry.
func (h *History) Clear() { h.entries.Clear() }

// Distance is the Euclidean distance between two fixes in the room plane.
func Distance(a, b telemetry.Position) float64 {
	return floats.Distance([]float64{a.X, a.Y}, []float64{b.X, b.Y}, 2)
}
