// Package stream keeps one resilient connection to the positioning backend and
// fans decoded samples out to any number of subscribers.
package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pulsar.klederson.com/internal/telemetry"
	"pulsar.klederson.com/internal/timeutil"
)

// Options configures a Service.
type Options struct {
	URL            string
	ReconnectDelay time.Duration
	Dialer         Dialer         // defaults to WebsocketDialer
	Clock          timeutil.Clock // defaults to RealClock
	Logger         zerolog.Logger
}

// Service owns the single backend connection and its retry timer.
//
// Lifecycle: New, then Connect or Acquire. Releasing the last acquired
// subscription returns the service to idle; Shutdown is terminal.
//
// Subscriber callbacks run on the connection goroutine, one at a time, in
// subscription order. They must not block for long and must not call
// Shutdown.
type Service struct {
	url    string
	delay  time.Duration
	dialer Dialer
	clock  timeutil.Clock
	log    zerolog.Logger

	mu       sync.Mutex
	state    ConnState
	subs     []*Subscription
	acquired int
	attempts int
	gen      uint64 // bumped on every start/stop; stale goroutines stop notifying
	cancel   context.CancelFunc
	done     chan struct{}
	closed   bool
}

// New creates an idle service. Nothing is dialed until Connect or Acquire.
func New(opts Options) *Service {
	if opts.Dialer == nil {
		opts.Dialer = WebsocketDialer{Log: opts.Logger}
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	return &Service{
		url:    opts.URL,
		delay:  opts.ReconnectDelay,
		dialer: opts.Dialer,
		clock:  opts.Clock,
		log:    opts.Logger.With().Str("component", "stream").Str("url", opts.URL).Logger(),
	}
}

// Subscription is a registered listener. Unsubscribe is idempotent.
type Subscription struct {
	id       uuid.UUID
	fn       func(Event)
	svc      *Service
	acquired bool
	active   atomic.Bool
	once     sync.Once
}

// ID returns the subscription's identity.
func (s *Subscription) ID() string { return s.id.String() }

// Unsubscribe stops delivery to this listener. Releasing the last acquired
// subscription also stops the connection.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.svc != nil {
			s.svc.remove(s)
		}
	})
}

// Subscribe registers fn for every subsequent sample and state transition.
// It does not start the connection.
func (s *Service) Subscribe(fn func(Event)) *Subscription {
	return s.add(fn, false)
}

// Acquire subscribes fn and makes sure the connection is running. The
// connection stays up while at least one acquired subscription is live.
func (s *Service) Acquire(fn func(Event)) *Subscription {
	sub := s.add(fn, true)
	s.Connect()
	return sub
}

func (s *Service) add(fn func(Event), acquired bool) *Subscription {
	sub := &Subscription{id: uuid.New(), fn: fn}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return sub
	}
	sub.svc = s
	sub.acquired = acquired
	sub.active.Store(true)
	s.subs = append(s.subs, sub)
	if acquired {
		s.acquired++
	}
	s.log.Debug().Str("subscription", sub.ID()).Bool("acquired", acquired).Msg("Subscriber added")
	return sub
}

func (s *Service) remove(sub *Subscription) {
	sub.active.Store(false)

	s.mu.Lock()
	for i, x := range s.subs {
		if x == sub {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			break
		}
	}
	s.log.Debug().Str("subscription", sub.ID()).Msg("Subscriber removed")

	var stopped bool
	if sub.acquired && !s.closed {
		s.acquired--
		if s.acquired == 0 {
			stopped = s.stopLocked()
		}
	}
	subs := append([]*Subscription(nil), s.subs...)
	s.mu.Unlock()

	if stopped {
		s.log.Info().Msg("Last acquirer released, stream stopped")
		notify(subs, Event{State: StateIdle})
	}
}

// Connect starts the connection loop. It is a no-op while the loop is already
// running (open, connecting or waiting to retry) and after Shutdown.
func (s *Service) Connect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.gen++
	s.cancel = cancel
	prev := s.done
	s.done = make(chan struct{})
	go s.run(ctx, s.gen, prev, s.done)
}

// Shutdown closes the connection, cancels any pending retry and drops every
// subscriber. It blocks until the connection goroutine has exited and is safe
// to call more than once.
func (s *Service) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopLocked()
	for _, sub := range s.subs {
		sub.active.Store(false)
	}
	s.subs = nil
	s.acquired = 0
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	s.log.Info().Msg("Stream shut down")
}

// stopLocked cancels the running loop. It reports whether the state changed.
func (s *Service) stopLocked() bool {
	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	s.gen++
	changed := s.state != StateIdle
	s.state = StateIdle
	return changed
}

// State returns the current connection state.
func (s *Service) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether the connection is open.
func (s *Service) Connected() bool {
	return s.State() == StateOpen
}

// Attempts returns the number of dial attempts made so far.
func (s *Service) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// ErrShutdown is reported by the connection loop when it exits because the
// service was stopped.
var ErrShutdown = errors.New("stream stopped")

func (s *Service) run(ctx context.Context, gen uint64, prev, done chan struct{}) {
	defer close(done)

	// the previous loop may still be closing its connection
	if prev != nil {
		<-prev
	}

	for {
		if !s.transition(gen, StateConnecting, nil) {
			return
		}

		s.mu.Lock()
		s.attempts++
		attempt := s.attempts
		s.mu.Unlock()

		conn, err := s.dialer.Dial(ctx, s.url)
		if err == nil {
			err = s.serve(ctx, gen, conn)
		}
		if ctx.Err() != nil {
			s.log.Debug().Err(ErrShutdown).Msg("Connection loop stopped")
			return
		}

		s.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", s.delay).Msg("Stream disconnected")
		if !s.transition(gen, StateClosedPendingRetry, nil) {
			return
		}

		timer := s.clock.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C():
		}
	}
}

// serve reads frames until the connection fails. It always closes conn.
func (s *Service) serve(ctx context.Context, gen uint64, conn Conn) error {
	defer conn.Close()

	if !s.transition(gen, StateOpen, nil) {
		return ErrShutdown
	}
	s.log.Info().Msg("Stream connected")

	for {
		frame, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		sample, err := telemetry.Decode(frame)
		if err != nil {
			if errors.Is(err, telemetry.ErrUnknownType) {
				s.log.Debug().Err(err).Msg("Ignoring envelope")
			} else {
				s.log.Warn().Err(err).Int("bytes", len(frame)).Msg("Dropping malformed frame")
			}
			continue
		}

		if !s.transition(gen, StateOpen, &sample) {
			return ErrShutdown
		}
	}
}

// transition records the state and notifies subscribers. It reports false when
// gen is stale, meaning the loop was stopped and must exit without notifying.
func (s *Service) transition(gen uint64, state ConnState, sample *telemetry.Sample) bool {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return false
	}
	changed := s.state != state
	s.state = state
	subs := append([]*Subscription(nil), s.subs...)
	s.mu.Unlock()

	if sample == nil && !changed {
		return true
	}

	notify(subs, Event{Sample: sample, Connected: state == StateOpen, State: state})
	return true
}

func notify(subs []*Subscription, ev Event) {
	for _, sub := range subs {
		if sub.fn != nil && sub.active.Load() {
			sub.fn(ev)
		}
	}
}
