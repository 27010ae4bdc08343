package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"pulsar.klederson.com/internal/config"
	"pulsar.klederson.com/internal/telemetry"
	"pulsar.klederson.com/internal/timeutil"
)

const shutdownTimeout = 5 * time.Second

// Source produces samples until ctx is canceled or the input ends.
type Source interface {
	Run(ctx context.Context, emit func(telemetry.Sample)) error
}

// Relay connects a Source to a Hub.
type Relay struct {
	source Source
	hub    *Hub
	clock  timeutil.Clock
	log    zerolog.Logger
}

// New creates a relay.
func New(source Source, hub *Hub, clock timeutil.Clock, log zerolog.Logger) *Relay {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Relay{source: source, hub: hub, clock: clock, log: log}
}

// Pump runs the source and broadcasts every sample as a position_update
// envelope stamped with the relay's receive time.
func (r *Relay) Pump(ctx context.Context) error {
	return r.source.Run(ctx, func(s telemetry.Sample) {
		frame, err := telemetry.Encode(s, r.clock.Now().UnixMilli())
		if err != nil {
			r.log.Error().Err(err).Msg("Failed to encode sample")
			return
		}
		r.hub.Broadcast(frame)
		r.log.Debug().
			Float64("x", s.Position.X).
			Float64("y", s.Position.Y).
			Float64("accuracy", s.Position.Accuracy).
			Int("clients", r.hub.Clients()).
			Msg("Broadcast position")
	})
}

// Handler returns the relay's HTTP routes: /ws for the feed and /health.
func (r *Relay) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", r.hub)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"clients": r.hub.Clients(),
		})
	})
	return mux
}

// SelectSource opens the serial port, falling back to the demo generator when
// demo mode is requested or the port cannot be opened.
func SelectSource(cfg config.RelayConfig, open PortOpener, log zerolog.Logger) Source {
	demo := func() Source {
		return NewDemoSource(config.DefaultRoomWidthM, config.DefaultRoomHeightM,
			config.DefaultBeacons, cfg.DemoInterval, nil, time.Now().UnixNano())
	}
	if cfg.Demo {
		log.Info().Dur("interval", cfg.DemoInterval).Msg("Demo mode: generating samples")
		return demo()
	}

	port, err := open(cfg.SerialPort, cfg.BaudRate)
	if err != nil {
		log.Warn().Err(err).Msg("Serial connection failed, falling back to demo data")
		return demo()
	}
	log.Info().Str("port", cfg.SerialPort).Int("baud", cfg.BaudRate).Msg("Connected to serial port")
	return NewSerialSource(port, log)
}

// Run serves the feed on cfg.Addr until ctx is canceled.
func Run(ctx context.Context, cfg config.RelayConfig, open PortOpener, log zerolog.Logger) error {
	hub := NewHub(log)
	r := New(SelectSource(cfg, open, log), hub, nil, log)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	srv := &http.Server{Handler: r.Handler(), ReadHeaderTimeout: 10 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("WebSocket endpoint listening on /ws")
		serveErr <- srv.Serve(ln)
	}()

	pumpCtx, stopPump := context.WithCancel(ctx)
	defer stopPump()
	go func() {
		err := r.Pump(pumpCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Sample source stopped")
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info().Msg("Shutting down relay")
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
