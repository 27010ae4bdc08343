package app

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"pulsar.klederson.com/internal/config"
	"pulsar.klederson.com/internal/radar"
	"pulsar.klederson.com/internal/stream"
	"pulsar.klederson.com/internal/telemetry"
	"pulsar.klederson.com/internal/track"
	"pulsar.klederson.com/internal/ui"
)

// shared holds state shared between the Bubble Tea model copies and main.go.
// Because Bubble Tea uses value receivers, pointer fields ensure all copies
// see the same underlying data. Only Update touches the trackers.
type shared struct {
	service *stream.Service
	sub     *stream.Subscription

	smoother *track.Smoother
	history  *track.History
	trail    *track.Trail
	accuracy *track.Ring[float64]

	loop     *radar.FrameLoop
	renderer *radar.Renderer

	log zerolog.Logger
}

// AppModel is the root Bubble Tea model for the positioning viewer.
type AppModel struct {
	width  int
	height int

	cfg       config.Config
	showTrail bool
	panel     ui.SidePanel
	scroll    int
	help      help.Model

	connected bool
	state     stream.ConnState
	latest    *telemetry.Sample
	samples   int
	frame     string

	shared *shared
}

// New creates an AppModel reading from svc. The service is not started until
// Start is called.
func New(cfg config.Config, svc *stream.Service, log zerolog.Logger) AppModel {
	return AppModel{
		cfg:       cfg,
		showTrail: cfg.ShowTrail,
		help:      help.New(),
		shared: &shared{
			service:  svc,
			smoother: track.NewSmoother(cfg.SmoothingAlpha),
			history:  track.NewHistory(cfg.MovementThresholdM, cfg.HistoryCapacity),
			trail:    track.NewTrail(cfg.TrailLength),
			accuracy: track.NewRing[float64](cfg.TrailLength),
			loop:     radar.NewFrameLoop(cfg.FPS),
			renderer: radar.NewRenderer(radar.Extent{Width: cfg.RoomWidthM, Height: cfg.RoomHeightM}),
			log:      log.With().Str("component", "app").Logger(),
		},
	}
}

// Start acquires the stream and forwards its events through send. Must be
// called before p.Run().
func (m *AppModel) Start(send Sender) {
	m.shared.sub = m.shared.service.Acquire(func(ev stream.Event) {
		send(StreamMsg(ev))
	})
}

func (m AppModel) Init() tea.Cmd {
	return m.shared.loop.Start()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamMsg:
		return m.handleStream(stream.Event(msg)), nil

	case radar.FrameMsg:
		if !m.shared.loop.Begin(msg) {
			return m, nil
		}
		m.frame = m.draw()
		return m, m.shared.loop.End()
	}

	return m, nil
}

func (m AppModel) handleStream(ev stream.Event) AppModel {
	if ev.State != m.state {
		m.shared.log.Info().Stringer("state", ev.State).Bool("connected", ev.Connected).Msg("Connection state changed")
	}
	m.state = ev.State
	m.connected = ev.Connected

	if ev.Sample == nil {
		if !ev.Connected {
			m.latest = nil
		}
		return m
	}

	s := ev.Sample
	m.latest = s
	m.samples++

	sh := m.shared
	sh.smoother.Update(s.Position)
	sh.trail.Push(s.Position)
	sh.accuracy.Push(s.Position.Accuracy)
	if sh.history.Consider(*s) {
		sh.log.Debug().Float64("x", s.Position.X).Float64("y", s.Position.Y).Msg("Position recorded")
	}
	return m
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, ui.Keys.Quit):
		m.stop()
		return m, tea.Quit

	case key.Matches(msg, ui.Keys.Trail):
		m.showTrail = !m.showTrail

	case key.Matches(msg, ui.Keys.Panel):
		m.panel = m.panel.Next()
		m.scroll = 0

	case key.Matches(msg, ui.Keys.Clear):
		m.shared.history.Clear()
		m.scroll = 0

	case key.Matches(msg, ui.Keys.Up):
		if m.scroll > 0 {
			m.scroll--
		}

	case key.Matches(msg, ui.Keys.Down):
		m.scroll = ui.ClampScroll(m.scroll+1, len(m.sideRows()), m.layout().listRows())

	case key.Matches(msg, ui.Keys.Home):
		m.scroll = 0

	case key.Matches(msg, ui.Keys.End):
		m.scroll = ui.ClampScroll(len(m.sideRows()), len(m.sideRows()), m.layout().listRows())
	}

	return m, nil
}

// draw advances the smoother one step and paints the radar for this frame.
func (m AppModel) draw() string {
	sh := m.shared
	pos := sh.smoother.Tick()
	l := m.layout()

	return sh.renderer.Render(l.radarCols, l.radarRows, radar.Scene{
		Beacons:       m.cfg.Beacons,
		Sample:        m.latest,
		Smoothed:      pos,
		HasFix:        sh.smoother.HasSample(),
		Trail:         sh.trail.Points(),
		ShowTrail:     m.showTrail,
		GridStepM:     m.cfg.GridStepM,
		AccuracyWarnM: m.cfg.AccuracyWarnM,
	})
}

func (m AppModel) layout() layout {
	return computeLayout(m.width, m.height)
}

func (m AppModel) sideRows() []string {
	w := m.layout().sideW - 4
	if m.panel == ui.PanelHistory {
		return ui.HistoryRows(m.shared.history.Snapshot(), w)
	}
	return ui.BeaconRows(m.latest, w)
}

func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing " + config.AppName + "..."
	}

	l := m.layout()
	sh := m.shared

	menuBar := ui.RenderMenuBar(m.width, m.connected, m.cfg.EndpointURL, m.help.View(ui.Keys))

	radarContent := m.frame
	if radarContent == "" {
		radarContent = ui.RenderRadarPlaceholder(l.radarCols, l.radarRows, "radar area too small")
	}
	radarPanel := ui.RenderRadarPanel(l.radarW, l.bodyH, radarContent, ui.RenderLegend(l.radarCols))

	infoPanel := ui.RenderInfoPanel(ui.Info{
		Sample:        m.latest,
		Smoothed:      sh.smoother.Value(),
		HasFix:        sh.smoother.HasSample(),
		Accuracy:      sh.accuracy.Values(),
		TrailLength:   sh.trail.PathLength(),
		AccuracyWarnM: m.cfg.AccuracyWarnM,
		Now:           time.Now(),
	}, l.sideW, l.infoH)

	title := "BEACONS"
	if m.panel == ui.PanelHistory {
		title = "HISTORY"
	}
	sidePanel := ui.RenderSidePanel(title, m.sideRows(), l.sideW, l.listH, m.scroll)

	var pxPerM float64
	if tf, ok := sh.renderer.Transform(); ok {
		pxPerM = tf.Scale
	}
	statusBar := ui.RenderStatusBar(m.width, ui.Status{
		State:      m.state.String(),
		Connected:  m.connected,
		Attempts:   sh.service.Attempts(),
		PxPerM:     pxPerM,
		Samples:    m.samples,
		History:    sh.history.Len(),
		HistoryCap: sh.history.Cap(),
		Trail:      m.showTrail,
		FPS:        m.cfg.FPS,
		Frames:     sh.loop.Frames(),
	})

	return ui.ComposeLayout(menuBar, radarPanel, infoPanel, sidePanel, statusBar)
}

// stop cancels the frame loop and releases the stream. Safe to call twice.
func (m AppModel) stop() {
	m.shared.loop.Cancel()
	if m.shared.sub != nil {
		m.shared.sub.Unsubscribe()
	}
}
