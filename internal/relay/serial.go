package relay

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"go.bug.st/serial"

	"pulsar.klederson.com/internal/telemetry"
)

// SerialPorter is the part of a serial port the relay needs.
type SerialPorter interface {
	io.Reader
	io.Closer
}

// PortOpener opens a serial port. Tests substitute an in-memory port.
type PortOpener func(path string, baud int) (SerialPorter, error)

// OpenSerial opens a real serial port in 8N1 mode.
func OpenSerial(path string, baud int) (SerialPorter, error) {
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	return port, nil
}

// SerialSource reads newline-delimited JSON samples from the receiver. Lines
// that do not start with '{' are device debug output and are skipped.
type SerialSource struct {
	port SerialPorter
	log  zerolog.Logger
}

// NewSerialSource wraps an open port.
func NewSerialSource(port SerialPorter, log zerolog.Logger) *SerialSource {
	return &SerialSource{
		port: port,
		log:  log.With().Str("component", "serial").Logger(),
	}
}

// Run scans the port until EOF, a read error, or ctx is canceled. The port is
// closed on return.
func (s *SerialSource) Run(ctx context.Context, emit func(telemetry.Sample)) error {
	defer s.port.Close()

	scan := bufio.NewScanner(s.port)
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		for scan.Scan() {
			select {
			case lines <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scan.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				var err error
				select {
				case err = <-scanErr:
				default:
					err = ctx.Err()
				}
				if err == nil {
					err = io.EOF
				}
				return fmt.Errorf("serial stream ended: %w", err)
			}
			s.handle(line, emit)
		}
	}
}

func (s *SerialSource) handle(line string, emit func(telemetry.Sample)) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if !strings.HasPrefix(line, "{") {
		s.log.Debug().Str("line", line).Msg("Device output")
		return
	}

	sample, err := telemetry.DecodeSample([]byte(line))
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to parse sample")
		return
	}
	emit(sample)
}
