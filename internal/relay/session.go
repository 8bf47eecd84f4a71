package relay

import (
	"log/slog"
	"time"
)

// Supervisor drives one connection's lifecycle: register, await join
// within the join timeout, then dispatch inbound events until the
// transport closes. Each connection runs its own Run call on its own
// goroutine; nothing here is shared across connections except the
// registry and the components reading it.
type Supervisor struct {
	registry    *Registry
	relay       *Relay
	typing      *Debouncer
	joinTimeout time.Duration
	log         *slog.Logger
}

func NewSupervisor(registry *Registry, relay *Relay, typing *Debouncer, joinTimeout time.Duration, log *slog.Logger) *Supervisor {
	return &Supervisor{
		registry:    registry,
		relay:       relay,
		typing:      typing,
		joinTimeout: joinTimeout,
		log:         log,
	}
}

// Run blocks until the connection is done. The inbound channel is the
// decoded event stream from the transport; the transport closes it when
// the peer disconnects or the read side fails. Recoverable errors are
// reported back on the connection, which stays open.
func (s *Supervisor) Run(conn Conn, inbound <-chan Event) {
	sessionID, err := s.registry.Register(conn)
	if err != nil {
		// Only DuplicateConnection lands here: the id source is broken.
		s.log.Error("connection registration failed", "error", err)
		conn.Close()
		return
	}
	defer func() {
		// Timer cancellation precedes deregistration so no typing
		// callback can fire against a removed session.
		s.typing.Teardown(sessionID)
		s.registry.Deregister(sessionID)
		conn.Close()
	}()

	if !s.awaitJoin(sessionID, conn, inbound) {
		return
	}

	for ev := range inbound {
		switch ev.Type {
		case EventMessage:
			if _, err := s.relay.Publish(sessionID, ev.Body); err != nil {
				s.sendError(conn, err)
			}
		case EventTyping:
			s.typing.Signal(sessionID)
		case EventJoin:
			// One identity per connection lifetime; a repeated join is
			// dropped rather than renaming the session.
			s.log.Debug("ignoring join on joined session", "session", sessionID)
		default:
			s.log.Debug("unknown inbound event", "session", sessionID, "type", ev.Type)
		}
	}
}

// awaitJoin waits for a valid join event, bounded by the join timeout.
// Returns false when the connection should be torn down.
func (s *Supervisor) awaitJoin(sessionID string, conn Conn, inbound <-chan Event) bool {
	timer := time.NewTimer(s.joinTimeout)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.log.Info("join timeout, disconnecting", "session", sessionID)
			return false
		case ev, ok := <-inbound:
			if !ok {
				return false
			}
			if ev.Type != EventJoin {
				s.sendError(conn, ErrNotJoined)
				continue
			}
			if err := s.registry.ConfirmJoin(sessionID, ev.User); err != nil {
				s.sendError(conn, err)
				continue
			}
			return true
		}
	}
}

func (s *Supervisor) sendError(conn Conn, err error) {
	if werr := conn.WriteEvent(errorEvent(err)); werr != nil {
		s.log.Debug("error report not delivered", "error", werr)
	}
}
