package stream

import (
	"context"
	"errors"
	"io"
	"sync"
)

// fakeDialer hands out in-memory connections and tracks how many are open at
// the same time.
type fakeDialer struct {
	mu       sync.Mutex
	dials    int
	open     int
	maxOpen  int
	failNext int
	conns    []*fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials++
	if d.failNext > 0 {
		d.failNext--
		return nil, errors.New("connection refused")
	}
	d.open++
	if d.open > d.maxOpen {
		d.maxOpen = d.open
	}
	c := &fakeConn{
		dialer: d,
		frames: make(chan []byte, 16),
		drop:   make(chan struct{}),
	}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) stats() (dials, open, maxOpen int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials, d.open, d.maxOpen
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

func (d *fakeDialer) fail(n int) {
	d.mu.Lock()
	d.failNext = n
	d.mu.Unlock()
}

type fakeConn struct {
	dialer    *fakeDialer
	frames    chan []byte
	drop      chan struct{}
	dropOnce  sync.Once
	closeOnce sync.Once
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.drop:
		return nil, io.EOF
	case f := <-c.frames:
		return f, nil
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() {
		c.dialer.mu.Lock()
		c.dialer.open--
		c.dialer.mu.Unlock()
	})
	return nil
}

// serverClose simulates the backend dropping the connection.
func (c *fakeConn) serverClose() {
	c.dropOnce.Do(func() { close(c.drop) })
}

func (c *fakeConn) send(frame string) {
	c.frames <- []byte(frame)
}

// recorder collects events delivered to a subscriber.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) samples() []Event {
	var out []Event
	for _, ev := range r.all() {
		if ev.Sample != nil {
			out = append(out, ev)
		}
	}
	return out
}
