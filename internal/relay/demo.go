package relay

import (
	"context"
	"math"
	"math/rand"
	"time"

	"pulsar.klederson.com/internal/config"
	"pulsar.klederson.com/internal/telemetry"
	"pulsar.klederson.com/internal/timeutil"
)

const (
	txPowerWiFi   = -40.0 // RSSI at 1 m
	txPowerBLE    = -59.0
	pathLossExp   = 2.2
	lostChance    = 0.02
	recoverChance = 0.3
)

type demoBeacon struct {
	config.Beacon
	wifiLost bool
	bleLost  bool
	lastWiFi telemetry.Reading
	lastBLE  telemetry.Reading
}

// DemoSource synthesises a receiver wandering through the room on a Lissajous
// path, with noisy per-beacon readings and the occasional lost beacon.
type DemoSource struct {
	room     [2]float64
	interval time.Duration
	clock    timeutil.Clock
	rng      *rand.Rand
	beacons  []demoBeacon
	t        float64
}

// NewDemoSource creates a generator for a room of width×height meters.
func NewDemoSource(width, height float64, beacons []config.Beacon, interval time.Duration, clock timeutil.Clock, seed int64) *DemoSource {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	bs := make([]demoBeacon, len(beacons))
	for i, b := range beacons {
		bs[i] = demoBeacon{Beacon: b}
	}
	return &DemoSource{
		room:     [2]float64{width, height},
		interval: interval,
		clock:    clock,
		rng:      rand.New(rand.NewSource(seed)),
		beacons:  bs,
	}
}

// Run emits one sample per interval until ctx is canceled.
func (d *DemoSource) Run(ctx context.Context, emit func(telemetry.Sample)) error {
	ticker := d.clock.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			emit(d.Next(now))
		}
	}
}

// Next advances the simulation one step.
func (d *DemoSource) Next(now time.Time) telemetry.Sample {
	d.t += d.interval.Seconds()
	w, h := d.room[0], d.room[1]

	truth := telemetry.Position{
		X: w/2 + 0.4*w*math.Sin(d.t*0.31),
		Y: h/2 + 0.4*h*math.Sin(d.t*0.23+1),
	}
	noise := 0.03 + 0.05*(1+math.Sin(d.t*0.11))
	pos := telemetry.Position{
		X:        truth.X + d.rng.NormFloat64()*noise,
		Y:        truth.Y + d.rng.NormFloat64()*noise,
		Accuracy: noise * 4,
	}

	s := telemetry.Sample{
		Timestamp: now.UnixMilli(),
		Position:  pos,
		WiFi:      make(map[string]telemetry.Reading, len(d.beacons)),
		BLE:       make(map[string]telemetry.Reading, len(d.beacons)),
		Fusion: telemetry.Fusion{
			WiFiWeight: 0.6 + 0.1*math.Sin(d.t*0.2),
			BLEWeight:  0.4 - 0.1*math.Sin(d.t*0.2),
		},
		Environment: &telemetry.Environment{
			Temperature: 22 + 0.8*math.Sin(d.t*0.05),
			Humidity:    45 + 5*math.Sin(d.t*0.03),
		},
	}

	for i := range d.beacons {
		b := &d.beacons[i]
		dist := math.Hypot(truth.X-b.X, truth.Y-b.Y)
		b.wifiLost = d.flip(b.wifiLost)
		b.bleLost = d.flip(b.bleLost)
		b.lastWiFi = d.reading(b.lastWiFi, b.wifiLost, dist, txPowerWiFi, 0.08)
		b.lastBLE = d.reading(b.lastBLE, b.bleLost, dist, txPowerBLE, 0.15)
		s.WiFi[b.ID] = b.lastWiFi
		s.BLE[b.ID] = b.lastBLE
	}

	// the camera only sees the receiver now and then
	if d.rng.Float64() < 0.3 {
		s.CV = &telemetry.Position{
			X:        truth.X + d.rng.NormFloat64()*0.01,
			Y:        truth.Y + d.rng.NormFloat64()*0.01,
			Accuracy: 0.02,
		}
	}
	return s
}

func (d *DemoSource) flip(lost bool) bool {
	if lost {
		return d.rng.Float64() >= recoverChance
	}
	return d.rng.Float64() < lostChance
}

// reading returns a fresh reading, or the stale last-known one marked lost.
func (d *DemoSource) reading(last telemetry.Reading, lost bool, dist, txPower, jitter float64) telemetry.Reading {
	if lost {
		last.Found = false
		return last
	}
	measured := math.Max(0.05, dist*(1+d.rng.NormFloat64()*jitter))
	rssi := txPower - 10*pathLossExp*math.Log10(measured)
	return telemetry.Reading{
		RSSI:     int(math.Round(rssi)),
		Distance: math.Round(measured*100) / 100,
		Found:    true,
	}
}
