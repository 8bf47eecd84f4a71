package relay

import (
	"log/slog"
	"sync"
	"time"
)

type typingState struct {
	timer  *time.Timer
	typing bool
	last   time.Time
}

// Debouncer collapses a burst of typing signals into a single
// started/stopped transition pair. One timer per session, armed with
// time.AfterFunc and re-armed with Reset; there is no polling. A timer
// that fires before the quiet window has elapsed since the last signal
// re-arms itself for the remainder, so a Reset racing an in-flight fire
// never produces an early stop.
type Debouncer struct {
	mu       sync.Mutex
	quiet    time.Duration
	registry *Registry
	states   map[string]*typingState
	log      *slog.Logger
	onFail   func(Member, error)
}

func NewDebouncer(quiet time.Duration, registry *Registry, log *slog.Logger, onFail func(Member, error)) *Debouncer {
	return &Debouncer{
		quiet:    quiet,
		registry: registry,
		states:   make(map[string]*typingState),
		log:      log,
		onFail:   onFail,
	}
}

// Signal records a typing signal from an active session. The first
// signal of a burst broadcasts typing_started to every other active
// session; repeats within the quiet window only push the stop deadline.
func (d *Debouncer) Signal(sessionID string) {
	m, ok := d.registry.ActiveMember(sessionID)
	if !ok {
		return
	}

	d.mu.Lock()
	st := d.states[sessionID]
	if st == nil {
		st = &typingState{}
		d.states[sessionID] = st
	}
	st.last = time.Now()
	started := !st.typing
	st.typing = true
	if st.timer == nil {
		st.timer = time.AfterFunc(d.quiet, func() { d.expire(sessionID) })
	} else {
		st.timer.Reset(d.quiet)
	}
	d.mu.Unlock()

	if started {
		ev := Event{Type: EventTypingStarted, User: m.Identity}
		fanOut(d.registry.SnapshotActive(), sessionID, ev, d.onFail)
	}
}

// Teardown cancels the session's timer and drops its state. After
// Teardown returns, no typing_stopped for that session will be emitted.
func (d *Debouncer) Teardown(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.states[sessionID]
	if st == nil {
		return
	}
	if st.timer != nil {
		st.timer.Stop()
	}
	delete(d.states, sessionID)
}

func (d *Debouncer) expire(sessionID string) {
	d.mu.Lock()
	st := d.states[sessionID]
	if st == nil || !st.typing {
		d.mu.Unlock()
		return
	}
	if remain := d.quiet - time.Since(st.last); remain > 0 {
		st.timer.Reset(remain)
		d.mu.Unlock()
		return
	}
	st.typing = false
	d.mu.Unlock()

	m, ok := d.registry.ActiveMember(sessionID)
	if !ok {
		// Torn down concurrently with the fire.
		return
	}
	ev := Event{Type: EventTypingStopped, User: m.Identity}
	fanOut(d.registry.SnapshotActive(), sessionID, ev, d.onFail)
}
