package relay

import (
	"errors"
	"sync"
)

var errConnClosed = errors.New("fake conn closed")

// fakeConn records every event written to it. failWrites simulates a
// recipient whose send buffer is full.
type fakeConn struct {
	mu         sync.Mutex
	events     []Event
	failWrites bool
	closed     bool
}

func (c *fakeConn) WriteEvent(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	if c.failWrites {
		return errors.New("send buffer full")
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) recorded() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *fakeConn) ofType(t EventType) []Event {
	var out []Event
	for _, ev := range c.recorded() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
