// Package relay implements a presence-aware broadcast relay: a
// connection registry as the single source of truth for membership, a
// presence tracker announcing joins and leaves with the roster, a typing
// debouncer, and a best-effort at-most-once fan-out of published
// messages. The package is transport-agnostic; anything satisfying Conn
// can carry a session.
package relay

import (
	"log/slog"
	"time"
)

// Options carries the tunables the transport layer must supply.
type Options struct {
	JoinTimeout     time.Duration
	TypingQuiet     time.Duration
	MaxMessageBytes int
	Mirror          StatusMirror
}

// Hub wires the relay components around one shared registry and hands
// out session supervision to the transport layer.
type Hub struct {
	Registry   *Registry
	Relay      *Relay
	Typing     *Debouncer
	Presence   *Tracker
	supervisor *Supervisor
	log        *slog.Logger
}

func NewHub(opts Options, log *slog.Logger) *Hub {
	registry := NewRegistry()

	// A recipient that cannot accept a write is disconnected; its own
	// session loop observes the close and deregisters it. Nothing about
	// the failure reaches the sender.
	onFail := func(m Member, err error) {
		log.Warn("dropping unresponsive recipient", "user", m.Identity, "session", m.SessionID, "error", err)
		m.Conn.Close()
	}

	hub := &Hub{
		Registry: registry,
		Relay:    NewRelay(registry, opts.MaxMessageBytes, log, onFail),
		Typing:   NewDebouncer(opts.TypingQuiet, registry, log, onFail),
		Presence: NewTracker(log, opts.Mirror, onFail),
		log:      log,
	}
	registry.SetListener(hub.Presence)
	hub.supervisor = NewSupervisor(registry, hub.Relay, hub.Typing, opts.JoinTimeout, log)
	return hub
}

// ServeSession runs a connection's full lifecycle and blocks until it
// ends. One call per connection, on the connection's own goroutine.
func (h *Hub) ServeSession(conn Conn, inbound <-chan Event) {
	h.supervisor.Run(conn, inbound)
}

// Online reports the number of active sessions, for the health endpoint.
func (h *Hub) Online() int {
	return len(h.Registry.SnapshotActive())
}
