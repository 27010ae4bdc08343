package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Stream
	DefaultEndpointURL    = "ws://localhost:8080/ws"
	DefaultReconnectDelay = 2000 * time.Millisecond // Constant retry interval, no backoff

	// Room geometry (meters)
	DefaultRoomWidthM  = 1.5
	DefaultRoomHeightM = 1.5
	DefaultGridStepM   = 0.25

	// Tracking
	DefaultSmoothingAlpha     = 0.1   // EMA factor applied once per frame
	DefaultMovementThresholdM = 0.075 // Minimum move before a history entry is recorded
	DefaultHistoryCapacity    = 50
	DefaultTrailLength        = 30
	DefaultAccuracyWarnM      = 2.0 // Accuracy at/above this is drawn in the warning color

	// Display
	TargetFPS = 30

	// Logging
	DefaultLogFile  = "pulsar.log"
	DefaultLogLevel = "info"

	// Relay
	DefaultRelayAddr    = ":8080"
	DefaultSerialPort   = "/dev/ttyUSB0"
	DefaultBaudRate     = 115200
	DefaultDemoInterval = 2 * time.Second

	// App
	AppName    = "PULSAR"
	AppVersion = "1.0"
)

// Beacon is a fixed anchor in room coordinates. Readings are matched to it by ID.
type Beacon struct {
	ID string
	X  float64
	Y  float64
}

// DefaultBeacons is the compiled-in anchor table.
var DefaultBeacons = []Beacon{
	{ID: "beacon1", X: 0, Y: 0},
	{ID: "beacon2", X: 1.5, Y: 0},
	{ID: "beacon3", X: 0.75, Y: 1.5},
}

// Config holds the viewer configuration.
type Config struct {
	EndpointURL        string
	RoomWidthM         float64
	RoomHeightM        float64
	GridStepM          float64
	MovementThresholdM float64
	HistoryCapacity    int
	SmoothingAlpha     float64
	ReconnectDelay     time.Duration
	TrailLength        int
	ShowTrail          bool
	AccuracyWarnM      float64
	FPS                int
	Beacons            []Beacon
	LogFile            string
	LogLevel           string
}

// Default returns the viewer configuration with every option at its default.
func Default() Config {
	beacons := make([]Beacon, len(DefaultBeacons))
	copy(beacons, DefaultBeacons)

	return Config{
		EndpointURL:        DefaultEndpointURL,
		RoomWidthM:         DefaultRoomWidthM,
		RoomHeightM:        DefaultRoomHeightM,
		GridStepM:          DefaultGridStepM,
		MovementThresholdM: DefaultMovementThresholdM,
		HistoryCapacity:    DefaultHistoryCapacity,
		SmoothingAlpha:     DefaultSmoothingAlpha,
		ReconnectDelay:     DefaultReconnectDelay,
		TrailLength:        DefaultTrailLength,
		ShowTrail:          true,
		AccuracyWarnM:      DefaultAccuracyWarnM,
		FPS:                TargetFPS,
		Beacons:            beacons,
		LogFile:            DefaultLogFile,
		LogLevel:           DefaultLogLevel,
	}
}

// Load reads the viewer configuration from an optional .env file and PULSAR_*
// environment variables, on top of Default().
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	var err error

	cfg.EndpointURL = getEnv("PULSAR_ENDPOINT_URL", cfg.EndpointURL)
	cfg.LogFile = getEnv("PULSAR_LOG_FILE", cfg.LogFile)
	cfg.LogLevel = getEnv("PULSAR_LOG_LEVEL", cfg.LogLevel)

	if cfg.RoomWidthM, err = getEnvAsFloat("PULSAR_ROOM_WIDTH_M", cfg.RoomWidthM); err != nil {
		return Config{}, err
	}
	if cfg.RoomHeightM, err = getEnvAsFloat("PULSAR_ROOM_HEIGHT_M", cfg.RoomHeightM); err != nil {
		return Config{}, err
	}
	if cfg.GridStepM, err = getEnvAsFloat("PULSAR_GRID_STEP_M", cfg.GridStepM); err != nil {
		return Config{}, err
	}
	if cfg.MovementThresholdM, err = getEnvAsFloat("PULSAR_MOVEMENT_THRESHOLD_M", cfg.MovementThresholdM); err != nil {
		return Config{}, err
	}
	if cfg.SmoothingAlpha, err = getEnvAsFloat("PULSAR_SMOOTHING_ALPHA", cfg.SmoothingAlpha); err != nil {
		return Config{}, err
	}
	if cfg.AccuracyWarnM, err = getEnvAsFloat("PULSAR_ACCURACY_WARN_M", cfg.AccuracyWarnM); err != nil {
		return Config{}, err
	}
	if cfg.HistoryCapacity, err = getEnvAsInt("PULSAR_HISTORY_CAPACITY", cfg.HistoryCapacity); err != nil {
		return Config{}, err
	}
	if cfg.TrailLength, err = getEnvAsInt("PULSAR_TRAIL_LENGTH", cfg.TrailLength); err != nil {
		return Config{}, err
	}
	if cfg.FPS, err = getEnvAsInt("PULSAR_FPS", cfg.FPS); err != nil {
		return Config{}, err
	}
	if cfg.ShowTrail, err = getEnvAsBool("PULSAR_SHOW_TRAIL", cfg.ShowTrail); err != nil {
		return Config{}, err
	}

	delayMs, err := getEnvAsInt("PULSAR_RECONNECT_DELAY_MS", int(cfg.ReconnectDelay/time.Millisecond))
	if err != nil {
		return Config{}, err
	}
	cfg.ReconnectDelay = time.Duration(delayMs) * time.Millisecond

	if raw := strings.TrimSpace(os.Getenv("PULSAR_BEACONS")); raw != "" {
		beacons, err := ParseBeacons(raw)
		if err != nil {
			return Config{}, err
		}
		cfg.Beacons = beacons
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks option ranges.
func (c Config) Validate() error {
	if strings.TrimSpace(c.EndpointURL) == "" {
		return fmt.Errorf("endpoint URL is required")
	}
	if c.RoomWidthM <= 0 || c.RoomHeightM <= 0 {
		return fmt.Errorf("room extent must be positive, got %gx%g m", c.RoomWidthM, c.RoomHeightM)
	}
	if c.GridStepM <= 0 {
		return fmt.Errorf("grid step must be positive, got %g m", c.GridStepM)
	}
	if c.MovementThresholdM < 0 {
		return fmt.Errorf("movement threshold must not be negative, got %g m", c.MovementThresholdM)
	}
	if c.HistoryCapacity < 1 {
		return fmt.Errorf("history capacity must be >= 1, got %d", c.HistoryCapacity)
	}
	if c.SmoothingAlpha <= 0 || c.SmoothingAlpha > 1 {
		return fmt.Errorf("smoothing alpha must be in (0,1], got %g", c.SmoothingAlpha)
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive, got %s", c.ReconnectDelay)
	}
	if c.TrailLength < 2 {
		return fmt.Errorf("trail length must be >= 2, got %d", c.TrailLength)
	}
	if c.FPS < 1 || c.FPS > 120 {
		return fmt.Errorf("fps must be in [1,120], got %d", c.FPS)
	}
	if c.AccuracyWarnM <= 0 {
		return fmt.Errorf("accuracy warning threshold must be positive, got %g m", c.AccuracyWarnM)
	}
	return nil
}

// ParseBeacons parses an anchor table in the form "id:x,y;id:x,y".
func ParseBeacons(s string) ([]Beacon, error) {
	var beacons []Beacon
	seen := make(map[string]bool)

	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, coords, ok := strings.Cut(part, ":")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid beacon %q (want id:x,y)", part)
		}
		xs, ys, ok := strings.Cut(coords, ",")
		if !ok {
			return nil, fmt.Errorf("invalid beacon %q (want id:x,y)", part)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid x for beacon %q: %w", id, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid y for beacon %q: %w", id, err)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate beacon %q", id)
		}
		seen[id] = true
		beacons = append(beacons, Beacon{ID: id, X: x, Y: y})
	}

	if len(beacons) == 0 {
		return nil, fmt.Errorf("beacon table is empty")
	}
	return beacons, nil
}

// RelayConfig holds the relay configuration.
type RelayConfig struct {
	Addr         string
	SerialPort   string
	BaudRate     int
	Demo         bool
	DemoInterval time.Duration
	LogLevel     string
}

// LoadRelay reads the relay configuration from .env and PULSAR_RELAY_* variables.
func LoadRelay() (RelayConfig, error) {
	_ = godotenv.Load()

	cfg := RelayConfig{
		Addr:       getEnv("PULSAR_RELAY_ADDR", DefaultRelayAddr),
		SerialPort: getEnv("PULSAR_RELAY_SERIAL", DefaultSerialPort),
		LogLevel:   getEnv("PULSAR_LOG_LEVEL", DefaultLogLevel),
	}

	var err error
	if cfg.BaudRate, err = getEnvAsInt("PULSAR_RELAY_BAUD", DefaultBaudRate); err != nil {
		return RelayConfig{}, err
	}
	if cfg.Demo, err = getEnvAsBool("PULSAR_RELAY_DEMO", false); err != nil {
		return RelayConfig{}, err
	}

	interval := getEnv("PULSAR_RELAY_DEMO_INTERVAL", DefaultDemoInterval.String())
	if cfg.DemoInterval, err = time.ParseDuration(interval); err != nil {
		return RelayConfig{}, fmt.Errorf("invalid PULSAR_RELAY_DEMO_INTERVAL %q: %w", interval, err)
	}

	if err := cfg.Validate(); err != nil {
		return RelayConfig{}, err
	}
	return cfg, nil
}

// Validate checks relay option ranges.
func (c RelayConfig) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("relay listen address is required")
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("baud rate must be positive, got %d", c.BaudRate)
	}
	if c.DemoInterval <= 0 {
		return fmt.Errorf("demo interval must be positive, got %s", c.DemoInterval)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}
