package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsar.klederson.com/internal/config"
	"pulsar.klederson.com/internal/radar"
	"pulsar.klederson.com/internal/stream"
	"pulsar.klederson.com/internal/telemetry"
	"pulsar.klederson.com/internal/timeutil"
	"pulsar.klederson.com/internal/ui"
)

type failDialer struct{}

func (failDialer) Dial(context.Context, string) (stream.Conn, error) {
	return nil, errors.New("connection refused")
}

func newModel(t *testing.T) AppModel {
	t.Helper()
	cfg := config.Default()
	svc := stream.New(stream.Options{URL: cfg.EndpointURL, ReconnectDelay: cfg.ReconnectDelay, Logger: zerolog.Nop()})
	t.Cleanup(svc.Shutdown)
	return New(cfg, svc, zerolog.Nop())
}

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(AppModel)
	require.True(t, ok)
	return am, cmd
}

func sampleAt(x, y float64) StreamMsg {
	return StreamMsg{
		Sample: &telemetry.Sample{
			Position: telemetry.Position{X: x, Y: y, Accuracy: 0.2},
			WiFi:     map[string]telemetry.Reading{"beacon1": {RSSI: -60, Distance: 0.5, Found: true}},
			BLE:      map[string]telemetry.Reading{},
		},
		Connected: true,
		State:     stream.StateOpen,
	}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestUpdate_SamplesFeedTrackers(t *testing.T) {
	m := newModel(t)

	m, _ = update(t, m, sampleAt(0.5, 0.5))
	m, _ = update(t, m, sampleAt(0.51, 0.5))
	m, _ = update(t, m, sampleAt(1.0, 0.5))

	assert.Equal(t, 3, m.samples)
	assert.True(t, m.connected)
	assert.Equal(t, stream.StateOpen, m.state)
	require.NotNil(t, m.latest)
	assert.Equal(t, 1.0, m.latest.Position.X)

	assert.Equal(t, 2, m.shared.history.Len())
	assert.Equal(t, 3, m.shared.trail.Len())
	assert.Equal(t, 3, m.shared.accuracy.Len())
	assert.True(t, m.shared.smoother.HasSample())
	// never set directly from a raw sample
	assert.Equal(t, telemetry.Position{}, m.shared.smoother.Value())
}

func TestUpdate_DisconnectClearsLatest(t *testing.T) {
	m := newModel(t)

	m, _ = update(t, m, sampleAt(0.5, 0.5))
	m, _ = update(t, m, StreamMsg{State: stream.StateClosedPendingRetry})

	assert.False(t, m.connected)
	assert.Nil(t, m.latest)
	assert.Equal(t, 1, m.samples)
	assert.Equal(t, 1, m.shared.history.Len())
	assert.True(t, m.shared.smoother.HasSample())

	m, _ = update(t, m, StreamMsg{Connected: true, State: stream.StateOpen})
	assert.True(t, m.connected)
	assert.Nil(t, m.latest)
}

func TestFrameLoop_DrawsAndReschedules(t *testing.T) {
	m := newModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, sampleAt(0.75, 0.75))

	cmd := m.Init()
	require.NotNil(t, cmd)
	assert.Equal(t, radar.LoopScheduled, m.shared.loop.State())

	msg := cmd()
	frame, ok := msg.(radar.FrameMsg)
	require.True(t, ok)

	m, next := update(t, m, frame)
	assert.NotNil(t, next)
	assert.NotEmpty(t, m.frame)
	assert.Equal(t, uint64(1), m.shared.loop.Frames())
	assert.InDelta(t, 0.075, m.shared.smoother.Value().X, 1e-9)

	// the same tick again is stale
	m, next = update(t, m, frame)
	assert.Nil(t, next)
	assert.Equal(t, uint64(1), m.shared.loop.Frames())
}

func TestFrameLoop_IgnoresForeignFrames(t *testing.T) {
	m := newModel(t)
	m.Init()

	m, cmd := update(t, m, radar.FrameMsg{ID: -1})
	assert.Nil(t, cmd)
	assert.Empty(t, m.frame)
	assert.Equal(t, radar.LoopScheduled, m.shared.loop.State())
}

func TestKeys(t *testing.T) {
	m := newModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, sampleAt(0.5, 0.5))

	require.True(t, m.showTrail)
	m, _ = update(t, m, runeKey('t'))
	assert.False(t, m.showTrail)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ui.PanelHistory, m.panel)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.scroll, "a single history row cannot scroll")

	m, _ = update(t, m, runeKey('c'))
	assert.Equal(t, 0, m.shared.history.Len())
	assert.Equal(t, 1, m.samples)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ui.PanelBeacons, m.panel)
}

func TestQuit_ReleasesStream(t *testing.T) {
	cfg := config.Default()
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	svc := stream.New(stream.Options{
		URL:            cfg.EndpointURL,
		ReconnectDelay: cfg.ReconnectDelay,
		Dialer:         failDialer{},
		Clock:          clock,
		Logger:         zerolog.Nop(),
	})
	defer svc.Shutdown()

	m := New(cfg, svc, zerolog.Nop())

	var mu sync.Mutex
	var got []StreamMsg
	m.Start(func(msg tea.Msg) {
		mu.Lock()
		defer mu.Unlock()
		if sm, ok := msg.(StreamMsg); ok {
			got = append(got, sm)
		}
	})
	m.Init()

	assert.Eventually(t, func() bool {
		return svc.State() == stream.StateClosedPendingRetry
	}, time.Second, 5*time.Millisecond)

	m, cmd := update(t, m, runeKey('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, radar.LoopCanceled, m.shared.loop.State())

	assert.Eventually(t, func() bool {
		return svc.State() == stream.StateIdle
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, got)
	assert.Equal(t, stream.StateConnecting, got[0].State)
}

func TestView(t *testing.T) {
	m := newModel(t)
	assert.Contains(t, m.View(), "Initializing")

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, sampleAt(0.5, 0.5))

	out := m.View()
	assert.Contains(t, out, "PULSAR")
	assert.Contains(t, out, "CONNECTED")
	assert.Contains(t, out, "BEACONS")
	assert.Contains(t, out, "beacon1")
	assert.Len(t, strings.Split(out, "\n"), 40)
}

func TestComputeLayout(t *testing.T) {
	l := computeLayout(120, 40)
	assert.Equal(t, 38, l.bodyH)
	assert.Equal(t, 72, l.radarW)
	assert.Equal(t, 48, l.sideW)
	assert.Equal(t, 22, l.infoH)
	assert.Equal(t, 16, l.listH)
	assert.Equal(t, 70, l.radarCols)
	assert.Equal(t, 35, l.radarRows)

	l = computeLayout(60, 20)
	assert.Equal(t, 34, l.sideW)
	assert.Equal(t, 26, l.radarW)

	l = computeLayout(20, 5)
	assert.Equal(t, minBodyH, l.bodyH)
	assert.LessOrEqual(t, l.radarCols, 0)
}

func TestUpdate_LogsStateChanges(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	svc := stream.New(stream.Options{URL: cfg.EndpointURL, Logger: zerolog.Nop()})
	t.Cleanup(svc.Shutdown)
	m := New(cfg, svc, zerolog.New(&buf).Level(zerolog.InfoLevel))

	m, _ = update(t, m, StreamMsg{Connected: true, State: stream.StateOpen})
	m, _ = update(t, m, sampleAt(0.5, 0.5))

	out := buf.String()
	assert.Contains(t, out, `"message":"Connection state changed"`)
	assert.Contains(t, out, `"state":"open"`)
	assert.Equal(t, 1, strings.Count(out, "Connection state changed"))
	assert.NotContains(t, out, "Position recorded", "debug is filtered at info level")
}
