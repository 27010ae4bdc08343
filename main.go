package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pulsar.klederson.com/internal/app"
	"pulsar.klederson.com/internal/config"
	"pulsar.klederson.com/internal/logging"
	"pulsar.klederson.com/internal/relay"
	"pulsar.klederson.com/internal/stream"
)

var (
	flagURL        string
	flagRoomWidth  float64
	flagRoomHeight float64
	flagGridStep   float64
	flagThreshold  float64
	flagCapacity   int
	flagAlpha      float64
	flagTrail      int
	flagNoTrail    bool
	flagFPS        int
	flagLogFile    string
	flagLogLevel   string

	flagRelayAddr   string
	flagRelaySerial string
	flagRelayBaud   int
	flagRelayDemo   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulsar",
		Short: "PULSAR - live indoor positioning viewer",
		Long: `PULSAR connects to a positioning backend over a websocket and draws the
receiver's estimated position, per-beacon WiFi/BLE readings, fusion weights
and environment data on a terminal radar.

The connection is retried every 2 seconds until the backend is reachable.
Use "pulsar relay --demo" to run a local backend without hardware.`,
		SilenceUsage: true,
		RunE:         run,
	}

	f := rootCmd.Flags()
	f.StringVar(&flagURL, "url", config.DefaultEndpointURL, "Backend websocket endpoint")
	f.Float64Var(&flagRoomWidth, "room-width", config.DefaultRoomWidthM, "Room width in meters")
	f.Float64Var(&flagRoomHeight, "room-height", config.DefaultRoomHeightM, "Room height in meters")
	f.Float64Var(&flagGridStep, "grid", config.DefaultGridStepM, "Grid spacing in meters")
	f.Float64Var(&flagThreshold, "threshold", config.DefaultMovementThresholdM, "Movement in meters before a history entry is recorded")
	f.IntVar(&flagCapacity, "history", config.DefaultHistoryCapacity, "Maximum history entries")
	f.Float64Var(&flagAlpha, "alpha", config.DefaultSmoothingAlpha, "Smoothing factor (0,1]")
	f.IntVar(&flagTrail, "trail", config.DefaultTrailLength, "Number of raw positions in the trail")
	f.BoolVar(&flagNoTrail, "no-trail", false, "Start with the trail hidden")
	f.IntVar(&flagFPS, "fps", config.TargetFPS, "Radar frames per second")
	f.StringVar(&flagLogFile, "log-file", config.DefaultLogFile, "Log file (the terminal is owned by the UI)")
	f.StringVar(&flagLogLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")

	relayCmd := &cobra.Command{
		Use:   "relay",
		Short: "Serve positioning samples from a serial device (or a demo generator) over a websocket",
		Long: `The relay reads newline-delimited JSON samples from a serial port, wraps
each in a position_update envelope and broadcasts it to every client on /ws.
When the port cannot be opened, or with --demo, it generates samples instead.`,
		SilenceUsage: true,
		RunE:         runRelay,
	}

	rf := relayCmd.Flags()
	rf.StringVar(&flagRelayAddr, "addr", config.DefaultRelayAddr, "Listen address")
	rf.StringVar(&flagRelaySerial, "serial", config.DefaultSerialPort, "Serial port of the positioning device")
	rf.IntVar(&flagRelayBaud, "baud", config.DefaultBaudRate, "Serial baud rate")
	rf.BoolVar(&flagRelayDemo, "demo", false, "Generate demo samples (no hardware required)")
	rf.StringVar(&flagLogLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")

	rootCmd.AddCommand(relayCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logFile, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()

	log := logging.New(logging.Config{Level: cfg.LogLevel, Output: logFile})
	log.Info().Str("url", cfg.EndpointURL).Msg("Starting viewer")

	svc := stream.New(stream.Options{
		URL:            cfg.EndpointURL,
		ReconnectDelay: cfg.ReconnectDelay,
		Logger:         log,
	})
	defer svc.Shutdown()

	model := app.New(cfg, svc, log)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithFPS(cfg.FPS),
	)

	// Start the stream with reference to the tea program
	model.Start(p.Send)

	_, err = p.Run()
	return err
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("url") {
		cfg.EndpointURL = flagURL
	}
	if f.Changed("room-width") {
		cfg.RoomWidthM = flagRoomWidth
	}
	if f.Changed("room-height") {
		cfg.RoomHeightM = flagRoomHeight
	}
	if f.Changed("grid") {
		cfg.GridStepM = flagGridStep
	}
	if f.Changed("threshold") {
		cfg.MovementThresholdM = flagThreshold
	}
	if f.Changed("history") {
		cfg.HistoryCapacity = flagCapacity
	}
	if f.Changed("alpha") {
		cfg.SmoothingAlpha = flagAlpha
	}
	if f.Changed("trail") {
		cfg.TrailLength = flagTrail
	}
	if flagNoTrail {
		cfg.ShowTrail = false
	}
	if f.Changed("fps") {
		cfg.FPS = flagFPS
	}
	if f.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadRelay()
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("addr") {
		cfg.Addr = flagRelayAddr
	}
	if f.Changed("serial") {
		cfg.SerialPort = flagRelaySerial
	}
	if f.Changed("baud") {
		cfg.BaudRate = flagRelayBaud
	}
	if flagRelayDemo {
		cfg.Demo = true
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := relay.Run(ctx, cfg, relay.OpenSerial, log); err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	return nil
}
