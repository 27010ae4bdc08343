package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// TypePositionUpdate is the only envelope type the viewer acts on.
const TypePositionUpdate = "position_update"

var (
	// ErrMalformed is returned for payloads that are not valid envelopes or samples.
	ErrMalformed = errors.New("malformed payload")
	// ErrUnknownType is returned for well-formed envelopes of a type other than position_update.
	ErrUnknownType = errors.New("unknown envelope type")
)

// Envelope is the tagged wire frame: {type, data, timestamp}.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

type wireSample struct {
	Timestamp   int64              `json:"timestamp"`
	Position    *Position          `json:"position"`
	WiFi        map[string]Reading `json:"wifi"`
	BLE         map[string]Reading `json:"ble"`
	Fusion      Fusion             `json:"fusion"`
	CV          *Position          `json:"cv"`
	Environment *Environment       `json:"environment"`
}

// Decode parses a wire frame. Only position_update envelopes yield a Sample; other
// types return ErrUnknownType and anything unparseable returns ErrMalformed.
func Decode(frame []byte) (Sample, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type != TypePositionUpdate {
		return Sample{}, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	return DecodeSample(env.Data)
}

// DecodeSample parses a bare sample object. The position field is required.
func DecodeSample(data []byte) (Sample, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return Sample{}, fmt.Errorf("%w: sample is not an object", ErrMalformed)
	}

	var w wireSample
	if err := json.Unmarshal(data, &w); err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.Position == nil {
		return Sample{}, fmt.Errorf("%w: sample has no position", ErrMalformed)
	}

	s := Sample{
		Timestamp:   w.Timestamp,
		Position:    *w.Position,
		WiFi:        w.WiFi,
		BLE:         w.BLE,
		Fusion:      w.Fusion,
		CV:          w.CV,
		Environment: w.Environment,
	}
	if s.WiFi == nil {
		s.WiFi = map[string]Reading{}
	}
	if s.BLE == nil {
		s.BLE = map[string]Reading{}
	}
	return s, nil
}

// Encode wraps a sample in a position_update envelope stamped with ts (unix ms).
func Encode(s Sample, ts int64) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal sample: %w", err)
	}
	return json.Marshal(Envelope{Type: TypePositionUpdate, Data: data, Timestamp: ts})
}
