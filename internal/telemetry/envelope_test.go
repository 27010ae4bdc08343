package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = `{
  "type": "position_update",
  "timestamp": 1700000000123,
  "data": {
    "timestamp": 1700000000100,
    "position": {"x": 0.8, "y": 0.6, "accuracy": 0.35},
    "wifi": {"beacon1": {"rssi": -45, "distance": 2.1, "found": true}},
    "ble": {"beacon2": {"rssi": -72, "distance": 3.6, "found": false}},
    "fusion": {"wifi_weight": 0.7, "ble_weight": 0.5},
    "cv": {"x": 0.82, "y": 0.58, "accuracy": 0.05},
    "environment": {"temperature": 22.5, "humidity": 41}
  }
}`

func TestDecode_PositionUpdate(t *testing.T) {
	s, err := Decode([]byte(frame))
	require.NoError(t, err)

	assert.Equal(t, int64(1700000000100), s.Timestamp)
	assert.Equal(t, Position{X: 0.8, Y: 0.6, Accuracy: 0.35}, s.Position)
	assert.Equal(t, Reading{RSSI: -45, Distance: 2.1, Found: true}, s.WiFi["beacon1"])
	assert.False(t, s.BLE["beacon2"].Found)
	assert.Equal(t, 3.6, s.BLE["beacon2"].Distance)
	// weights are passed through untouched
	assert.Equal(t, Fusion{WiFiWeight: 0.7, BLEWeight: 0.5}, s.Fusion)
	require.NotNil(t, s.CV)
	assert.Equal(t, 0.82, s.CV.X)
	require.NotNil(t, s.Environment)
	assert.Equal(t, 22.5, s.Environment.Temperature)
}

func TestDecode_OptionalFieldsAbsent(t *testing.T) {
	s, err := Decode([]byte(`{"type":"position_update","data":{"position":{"x":1,"y":1,"accuracy":0.1}}}`))
	require.NoError(t, err)

	assert.Nil(t, s.CV)
	assert.Nil(t, s.Environment)
	assert.NotNil(t, s.WiFi)
	assert.NotNil(t, s.BLE)
	assert.Empty(t, s.WiFi)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"not json", `hello`, ErrMalformed},
		{"truncated", `{"type":"position_update","data":{`, ErrMalformed},
		{"unknown type", `{"type":"heartbeat","data":{}}`, ErrUnknownType},
		{"missing type", `{"data":{"position":{"x":1,"y":1}}}`, ErrUnknownType},
		{"data not object", `{"type":"position_update","data":"x"}`, ErrMalformed},
		{"data missing", `{"type":"position_update"}`, ErrMalformed},
		{"no position", `{"type":"position_update","data":{"wifi":{}}}`, ErrMalformed},
		{"wrong field type", `{"type":"position_update","data":{"position":{"x":"far"}}}`, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncode_DecodesBack(t *testing.T) {
	in := Sample{
		Timestamp: 42,
		Position:  Position{X: 1, Y: 0.5, Accuracy: 0.2},
		WiFi:      map[string]Reading{"beacon1": {RSSI: -50, Distance: 1.2, Found: true}},
		BLE:       map[string]Reading{},
		Fusion:    Fusion{WiFiWeight: 0.6, BLEWeight: 0.4},
	}

	data, err := Encode(in, 99)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"position_update"`)
	assert.Contains(t, string(data), `"wifi_weight":0.6`)
	assert.NotContains(t, string(data), `"cv"`)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSample_Clone(t *testing.T) {
	s, err := Decode([]byte(frame))
	require.NoError(t, err)

	c := s.Clone()
	c.WiFi["beacon1"] = Reading{}
	c.CV.X = 9
	c.Environment.Humidity = 0

	assert.Equal(t, -45, s.WiFi["beacon1"].RSSI)
	assert.Equal(t, 0.82, s.CV.X)
	assert.Equal(t, 41.0, s.Environment.Humidity)
}

func TestBeaconIDs(t *testing.T) {
	ids := BeaconIDs(map[string]Reading{"beacon3": {}, "beacon1": {}, "beacon2": {}})
	assert.Equal(t, []string{"beacon1", "beacon2", "beacon3"}, ids)
	assert.Empty(t, BeaconIDs(nil))
}
