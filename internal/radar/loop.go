package radar

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// LoopState is the lifecycle of a FrameLoop.
type LoopState int

const (
	LoopIdle LoopState = iota
	LoopScheduled
	LoopDrawing
	LoopCanceled
)

func (s LoopState) String() string {
	switch s {
	case LoopIdle:
		return "idle"
	case LoopScheduled:
		return "scheduled"
	case LoopDrawing:
		return "drawing"
	case LoopCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

var lastLoopID int64

// FrameMsg is delivered when a scheduled frame is due.
type FrameMsg struct {
	ID   int
	tag  int
	Time time.Time
}

// FrameLoop is the self-rescheduling render task. It owns exactly one pending
// frame at a time: a FrameMsg is only accepted if it carries the loop's id and
// the tag of the most recent schedule, so stray or duplicated ticks die out
// instead of forking a second chain.
type FrameLoop struct {
	id       int
	tag      int
	interval time.Duration
	state    LoopState
	frames   uint64
}

// NewFrameLoop creates an idle loop running at fps frames per second.
func NewFrameLoop(fps int) *FrameLoop {
	if fps < 1 {
		fps = 1
	}
	return &FrameLoop{
		id:       int(atomic.AddInt64(&lastLoopID, 1)),
		interval: time.Second / time.Duration(fps),
	}
}

// ID returns the loop's identity, carried by every FrameMsg it schedules.
func (l *FrameLoop) ID() int { return l.id }

// State returns the current lifecycle state.
func (l *FrameLoop) State() LoopState { return l.state }

// Frames returns how many frames have been drawn.
func (l *FrameLoop) Frames() uint64 { return l.frames }

// Interval returns the frame period.
func (l *FrameLoop) Interval() time.Duration { return l.interval }

// Start schedules the first frame. It is a no-op unless the loop is idle.
func (l *FrameLoop) Start() tea.Cmd {
	if l.state != LoopIdle {
		return nil
	}
	return l.schedule()
}

// Begin accepts a due frame and enters the drawing state. It reports false for
// frames this loop did not schedule, stale frames, and frames arriving after
// Cancel; the caller must then neither draw nor reschedule.
func (l *FrameLoop) Begin(msg FrameMsg) bool {
	if l.state != LoopScheduled || msg.ID != l.id || msg.tag != l.tag {
		return false
	}
	l.state = LoopDrawing
	return true
}

// End finishes the current frame and schedules the next one.
func (l *FrameLoop) End() tea.Cmd {
	if l.state != LoopDrawing {
		return nil
	}
	l.frames++
	return l.schedule()
}

// Cancel stops rescheduling. It is terminal and safe to call repeatedly.
func (l *FrameLoop) Cancel() {
	l.state = LoopCanceled
}

func (l *FrameLoop) schedule() tea.Cmd {
	l.tag++
	l.state = LoopScheduled
	id, tag := l.id, l.tag
	return tea.Tick(l.interval, func(t time.Time) tea.Msg {
		return FrameMsg{ID: id, tag: tag, Time: t}
	})
}
