package stream

import "pulsar.klederson.com/internal/telemetry"

// ConnState is the lifecycle of the shared backend connection.
type ConnState int

const (
	StateIdle ConnState = iota // not started, released or shut down
	StateConnecting
	StateOpen
	StateClosedPendingRetry
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosedPendingRetry:
		return "closed-pending-retry"
	default:
		return "unknown"
	}
}

// Event is what subscribers receive: either a decoded sample (Sample != nil) or
// a connection state transition (Sample == nil). Samples are shared between
// subscribers and must be treated as read-only.
type Event struct {
	Sample    *telemetry.Sample
	Connected bool
	State     ConnState
}
