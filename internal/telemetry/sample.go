// Package telemetry defines the positioning samples streamed by the backend and
// the envelope they travel in.
package telemetry

import (
	"maps"
	"slices"
)

// Position is a receiver fix in room coordinates (meters).
type Position struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Accuracy float64 `json:"accuracy"`
}

// Reading is one beacon's signal as seen by the receiver. When Found is false the
// beacon is unreachable and RSSI/Distance are the last known values.
type Reading struct {
	RSSI     int     `json:"rssi"`
	Distance float64 `json:"distance"`
	Found    bool    `json:"found"`
}

// Fusion holds the weights the upstream fuser gave each radio. They are not
// guaranteed to sum to 1.
type Fusion struct {
	WiFiWeight float64 `json:"wifi_weight"`
	BLEWeight  float64 `json:"ble_weight"`
}

// Environment is optional ambient sensor data.
type Environment struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// Sample is a single position update.
type Sample struct {
	Timestamp   int64              `json:"timestamp"`
	Position    Position           `json:"position"`
	WiFi        map[string]Reading `json:"wifi"`
	BLE         map[string]Reading `json:"ble"`
	Fusion      Fusion             `json:"fusion"`
	CV          *Position          `json:"cv,omitempty"`
	Environment *Environment       `json:"environment,omitempty"`
}

// Clone returns a deep copy that shares no maps or pointers with s.
func (s Sample) Clone() Sample {
	out := s
	out.WiFi = maps.Clone(s.WiFi)
	out.BLE = maps.Clone(s.BLE)
	if s.CV != nil {
		cv := *s.CV
		out.CV = &cv
	}
	if s.Environment != nil {
		env := *s.Environment
		out.Environment = &env
	}
	return out
}

// BeaconIDs returns the keys of a reading map in sorted order.
func BeaconIDs(readings map[string]Reading) []string {
	var ids []string
	for id := range readings {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
